package document

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/money"
)

const isoDate = "2006-01-02"

var supportedLogoExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Option configures Build
type Option func(*builder)

// WithVariant selects the client or company copy
func WithVariant(v Variant) Option {
	return func(b *builder) {
		b.variant = v
	}
}

// WithLogger sets the logger receiving one warning per defaulted field
func WithLogger(l *zap.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithFileChecker replaces the filesystem check used to accept logo paths
func WithFileChecker(fn func(path string) bool) Option {
	return func(b *builder) {
		if fn != nil {
			b.exists = fn
		}
	}
}

type builder struct {
	variant  Variant
	log      *zap.Logger
	exists   func(string) bool
	warnings []FieldWarning
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Build resolves an invoice record and its live profiles into a Document.
//
// It never fails: every missing field is replaced by a placeholder and
// reported in Document.Warnings. client and company may be nil. The record
// lines must already satisfy quantity > 0 and price >= 0.
func Build(inv *model.InvoiceRecord, client *model.ClientProfile, company *model.CompanyProfile, opts ...Option) *Document {
	b := &builder{
		variant: VariantClient,
		log:     zap.NewNop(),
		exists:  fileExists,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(zap.String("invoice_id", inv.ID))

	if client == nil {
		client = &model.ClientProfile{}
	}
	if company == nil {
		company = &model.CompanyProfile{}
	}

	doc := &Document{
		Variant: b.variant,
		Title:   Title,
	}
	if b.variant == VariantCompany {
		doc.CopyLabel = CompanyCopyLabel
		doc.Watermark = CompanyWatermark
	} else {
		doc.CopyLabel = ClientCopyLabel
	}

	doc.IssuedAt, _ = time.Parse(isoDate, inv.IssueDate)
	doc.Logo = b.logo(inv, company)
	doc.Emitter = b.emitter(inv.Emitter)
	doc.Client = b.client(inv.Client, client)
	doc.Meta = b.meta(inv)
	doc.Rows = rows(inv.Lines)
	doc.Totals = totalsBlock(inv.Totals())
	doc.LegalFooter = legalFooter(doc)
	doc.Warnings = b.warnings

	return doc
}

// resolve returns the first non-blank candidate, or placeholder with a warning
func (b *builder) resolve(field, placeholder string, candidates ...string) Resolved[string] {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return Given(strings.TrimSpace(c))
		}
	}
	b.warn(field, placeholder)
	return Fallback(placeholder)
}

func (b *builder) warn(field, placeholder string) {
	b.warnings = append(b.warnings, FieldWarning{Field: field, Placeholder: placeholder})
	b.log.Warn("field missing, placeholder used",
		zap.String("field", field),
		zap.String("placeholder", placeholder),
	)
}

func (b *builder) emitter(s model.EmitterSnapshot) Emitter {
	e := Emitter{
		Name:      b.resolve("emitter.name", Placeholder, s.Name),
		SIRET:     b.resolve("emitter.siret", Placeholder, s.SIRET),
		SIREN:     strings.TrimSpace(s.SIREN),
		APE:       b.resolve("emitter.ape", Placeholder, s.APE),
		VATNumber: b.resolve("emitter.vat_number", VATExemptionNotice, s.VATNumber),
		RCS:       strings.TrimSpace(s.RCS),
		Email:     b.resolve("emitter.email", Placeholder, s.Email),
		Phone:     b.resolve("emitter.phone", Placeholder, s.Phone),
	}

	if lines := addressLines(s.Street, s.PostalCode, s.City); len(lines) > 0 {
		e.Address = Given(lines)
	} else {
		b.warn("emitter.address", Placeholder)
		e.Address = Fallback([]string{Placeholder})
	}

	return e
}

// client merges the snapshot with the live profile; the profile only fills gaps
func (b *builder) client(s model.ClientSnapshot, p *model.ClientProfile) Client {
	c := Client{
		Name:      b.resolve("client.name", Placeholder, s.CompanyName, s.Name, p.CompanyName, p.Name),
		VATNumber: firstNonBlank(s.VATNumber, p.VATNumber),
	}

	// Show the contact person under the company name when both exist
	if company := firstNonBlank(s.CompanyName, p.CompanyName); company != "" {
		if name := firstNonBlank(s.Name, p.Name); name != "" && name != c.Name.Value {
			c.Contact = name
		}
	}

	if lines := snapshotAddress(s); len(lines) > 0 {
		c.BillingAddress = Given(lines)
	} else if lines := profileAddress(p); len(lines) > 0 {
		c.BillingAddress = Given(lines)
	} else {
		b.warn("client.billing_address", Placeholder)
		c.BillingAddress = Fallback([]string{Placeholder})
	}

	if s.DeliveryAddress != "" {
		c.DeliveryAddress = splitAddress(s.DeliveryAddress)
	}

	return c
}

// snapshotAddress is the address frozen on the invoice: structured fields, then the flat address
func snapshotAddress(s model.ClientSnapshot) []string {
	if lines := addressLines(s.Street, s.PostalCode, s.City); len(lines) > 0 {
		return lines
	}
	return splitAddress(s.Address)
}

// profileAddress is the live address, used only when the invoice carries none
func profileAddress(p *model.ClientProfile) []string {
	if lines := addressLines(p.Street, p.PostalCode, p.City); len(lines) > 0 {
		return lines
	}
	return splitAddress(p.Address)
}

func (b *builder) meta(inv *model.InvoiceRecord) Meta {
	m := Meta{
		Number: b.resolve("number", NumberUnavailable, inv.Number),
	}

	if inv.IssueDate != "" {
		m.IssueDate = Given(FormatDate(inv.IssueDate))
	} else {
		b.warn("issue_date", Placeholder)
		m.IssueDate = Fallback(Placeholder)
	}

	if inv.DueDate != "" {
		m.DueDate = Given(FormatDate(inv.DueDate))
	} else {
		b.warn("due_date", DueDateUnspecified)
		m.DueDate = Fallback(DueDateUnspecified)
	}

	if inv.SaleDate != "" {
		m.SaleDate = Given(FormatDate(inv.SaleDate))
	} else {
		b.warn("sale_date", m.IssueDate.Value)
		m.SaleDate = Fallback(m.IssueDate.Value)
	}

	if inv.Status != "" {
		m.Status = Given(inv.Status.Label())
	} else {
		b.warn("status", model.StatusUnpaid.Label())
		m.Status = Fallback(model.StatusUnpaid.Label())
	}

	m.Penalties = b.resolve("penalties", StandardPenalties, inv.Penalties)

	return m
}

// logo resolves record -> emitter snapshot -> company profile -> placeholder
func (b *builder) logo(inv *model.InvoiceRecord, company *model.CompanyProfile) Logo {
	for _, candidate := range []string{inv.LogoPath, inv.Emitter.LogoPath, company.LogoPath} {
		if candidate == "" {
			continue
		}
		if !supportedLogoExt[strings.ToLower(filepath.Ext(candidate))] {
			b.log.Debug("logo skipped, unsupported format", zap.String("path", candidate))
			continue
		}
		if !b.exists(candidate) {
			b.log.Debug("logo skipped, file not found", zap.String("path", candidate))
			continue
		}
		return Logo{Path: candidate}
	}

	b.warn("logo", LogoPlaceholder)
	return Logo{Placeholder: LogoPlaceholder}
}

func rows(lines []model.LineItem) []Row {
	out := make([]Row, len(lines))
	for i, l := range lines {
		amount := l.Amount()
		qty := money.FormatQuantity(l.Quantity)
		if l.Unit != "" {
			qty += " " + l.Unit
		}
		out[i] = Row{
			Index:         i,
			Description:   l.Description,
			Unit:          l.Unit,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			Amount:        amount,
			QuantityText:  qty,
			UnitPriceText: money.FormatEuro(l.UnitPrice),
			AmountText:    money.FormatEuro(amount),
		}
	}
	return out
}

func totalsBlock(t money.Totals) TotalsBlock {
	return TotalsBlock{
		Totals:   t,
		HTLabel:  "Total HT",
		VATLabel: "TVA " + money.FormatPercent(t.VATRate) + " %",
		TTCLabel: "Total TTC",
		HTText:   money.FormatEuro(t.HT),
		VATText:  money.FormatEuro(t.VAT),
		TTCText:  money.FormatEuro(t.TTC),
	}
}

func legalFooter(doc *Document) []string {
	lines := []string{
		"Date de règlement : " + doc.Meta.DueDate.Value,
		"Date de vente : " + doc.Meta.SaleDate.Value,
		"Modalité : règlement à réception",
		"Pénalités de retard : " + doc.Meta.Penalties.Value,
		"Escompte pour paiement anticipé : néant",
		"Indemnité forfaitaire de recouvrement : 40 €",
	}
	if doc.Emitter.VATExempt() {
		lines = append(lines, VATExemptionNotice)
	}
	lines = append(lines, doc.Emitter.Name.Value+" – SIRET "+doc.Emitter.SIRET.Value)
	return lines
}

// FormatDate renders an ISO date as dd/mm/yyyy; other input is returned as is
func FormatDate(iso string) string {
	t, err := time.Parse(isoDate, strings.TrimSpace(iso))
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

func addressLines(street, postal, city string) []string {
	var lines []string
	if s := strings.TrimSpace(street); s != "" {
		lines = append(lines, s)
	}
	if pc := strings.TrimSpace(strings.TrimSpace(postal) + " " + strings.TrimSpace(city)); pc != "" {
		lines = append(lines, pc)
	}
	return lines
}

// splitAddress splits a flat address on newlines or <br> markers
func splitAddress(addr string) []string {
	addr = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(addr)
	var lines []string
	for _, l := range strings.Split(addr, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
