package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/invoice-renderer/internal/money"
)

// Variant selects which copy of the invoice is rendered
type Variant int

const (
	VariantClient Variant = iota
	VariantCompany
)

func (v Variant) String() string {
	switch v {
	case VariantCompany:
		return "company"
	default:
		return "client"
	}
}

// ParseVariant parses "client" or "company"; empty means client
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "client":
		return VariantClient, nil
	case "company", "entreprise":
		return VariantCompany, nil
	default:
		return VariantClient, fmt.Errorf("unknown variant %q (want client or company)", s)
	}
}

// Fixed labels printed on every document
const (
	Title              = "FACTURE"
	CompanyWatermark   = "COPIE ENTREPRISE"
	ClientCopyLabel    = "Exemplaire client"
	CompanyCopyLabel   = "Exemplaire entreprise"
	LogoPlaceholder    = "VOTRE LOGO"
	Placeholder        = "-"
	VATExemptionNotice = "TVA non applicable – art. 293 B du CGI"
	DueDateUnspecified = "Non spécifiée"
	NumberUnavailable  = "N/A"
	StandardPenalties  = "Taux d'intérêt légal majoré de 10 points"
)

// Resolved is a field value together with whether a fallback produced it
type Resolved[T any] struct {
	Value     T
	Defaulted bool
}

// Given wraps a value taken from the source record
func Given[T any](v T) Resolved[T] {
	return Resolved[T]{Value: v}
}

// Fallback wraps a value produced by a fallback rule
func Fallback[T any](v T) Resolved[T] {
	return Resolved[T]{Value: v, Defaulted: true}
}

// FieldWarning records a field that was missing and replaced by a placeholder
type FieldWarning struct {
	Field       string `json:"field"`
	Placeholder string `json:"placeholder"`
}

// Emitter is the issuing company block
type Emitter struct {
	Name      Resolved[string]
	Address   Resolved[[]string]
	SIRET     Resolved[string]
	SIREN     string
	APE       Resolved[string]
	VATNumber Resolved[string]
	RCS       string
	Email     Resolved[string]
	Phone     Resolved[string]
}

// VATExempt reports whether the emitter has no VAT number
func (e Emitter) VATExempt() bool {
	return e.VATNumber.Defaulted
}

// Client is the billed client block
type Client struct {
	Name            Resolved[string]
	Contact         string
	BillingAddress  Resolved[[]string]
	DeliveryAddress []string
	VATNumber       string
}

// Meta holds identification and dates, already formatted for display
type Meta struct {
	Number    Resolved[string]
	IssueDate Resolved[string]
	DueDate   Resolved[string]
	SaleDate  Resolved[string]
	Status    Resolved[string]
	Penalties Resolved[string]
}

// Row is one table line with display strings
type Row struct {
	Index       int
	Description string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal

	QuantityText  string
	UnitPriceText string
	AmountText    string
}

// Shaded reports whether the row gets the alternate background
func (r Row) Shaded() bool {
	return r.Index%2 == 1
}

// TotalsBlock is the monetary summary with display strings
type TotalsBlock struct {
	money.Totals

	HTLabel  string
	VATLabel string
	TTCLabel string

	HTText  string
	VATText string
	TTCText string
}

// Logo is the resolved logo image, or the placeholder box when Path is empty
type Logo struct {
	Path        string
	Placeholder string
}

// Document is the resolved, render-ready view of an invoice.
// It is built once per render call and must not be mutated afterwards.
type Document struct {
	Variant   Variant
	Title     string
	CopyLabel string
	Watermark string

	Logo    Logo
	Emitter Emitter
	Client  Client
	Meta    Meta
	Rows    []Row
	Totals  TotalsBlock

	LegalFooter []string

	// IssuedAt is the parsed issue date, zero if unparsable
	IssuedAt time.Time

	Warnings []FieldWarning
}

// HasWatermark reports whether every page carries the watermark
func (d *Document) HasWatermark() bool {
	return d.Watermark != ""
}

// Defaulted reports whether a warning was raised for field
func (d *Document) Defaulted(field string) bool {
	for _, w := range d.Warnings {
		if w.Field == field {
			return true
		}
	}
	return false
}
