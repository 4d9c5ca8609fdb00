package document_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/model"
)

func fullInvoice() *model.InvoiceRecord {
	return &model.InvoiceRecord{
		ID:        "inv-1",
		Number:    "FACT-2024-001",
		IssueDate: "2024-03-15",
		DueDate:   "2024-04-14",
		SaleDate:  "2024-03-10",
		Status:    model.StatusPaid,
		Penalties: "3 fois le taux d'intérêt légal",
		LogoPath:  "/logos/record.png",
		Lines: []model.LineItem{
			{Description: "Conseil", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10), Unit: "h"},
			{Description: "Support", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(20)},
		},
		Emitter: model.EmitterSnapshot{
			Name:       "Atelier Dupont",
			Street:     "12 rue des Lilas",
			PostalCode: "75011",
			City:       "Paris",
			SIRET:      "12345678900012",
			APE:        "6201Z",
			VATNumber:  "FR12345678901",
			Email:      "contact@dupont.fr",
			Phone:      "01 23 45 67 89",
			LogoPath:   "/logos/emitter.png",
		},
		Client: model.ClientSnapshot{
			ClientID:    "cli-1",
			Name:        "Jean Martin",
			CompanyName: "ACME SAS",
			Street:      "1 avenue Foch",
			PostalCode:  "69006",
			City:        "Lyon",
		},
	}
}

func allFilesExist(string) bool { return true }

func TestBuild_CompleteRecordHasNoWarnings(t *testing.T) {
	doc := document.Build(fullInvoice(), nil, nil, document.WithFileChecker(allFilesExist))

	assert.Empty(t, doc.Warnings)
	assert.Equal(t, "FACTURE", doc.Title)
	assert.Equal(t, "Atelier Dupont", doc.Emitter.Name.Value)
	assert.Equal(t, []string{"12 rue des Lilas", "75011 Paris"}, doc.Emitter.Address.Value)
	assert.Equal(t, "ACME SAS", doc.Client.Name.Value)
	assert.Equal(t, "Jean Martin", doc.Client.Contact)
	assert.Equal(t, []string{"1 avenue Foch", "69006 Lyon"}, doc.Client.BillingAddress.Value)
	assert.Equal(t, "15/03/2024", doc.Meta.IssueDate.Value)
	assert.Equal(t, "14/04/2024", doc.Meta.DueDate.Value)
	assert.Equal(t, "10/03/2024", doc.Meta.SaleDate.Value)
	assert.Equal(t, "Payée", doc.Meta.Status.Value)
	assert.Equal(t, "/logos/record.png", doc.Logo.Path)
	assert.False(t, doc.Emitter.VATExempt())
	assert.Equal(t, 2024, doc.IssuedAt.Year())
}

func TestBuild_RowsAndTotals(t *testing.T) {
	doc := document.Build(fullInvoice(), nil, nil)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "Conseil", doc.Rows[0].Description)
	assert.Equal(t, "2 h", doc.Rows[0].QuantityText)
	assert.Equal(t, "10,00 €", doc.Rows[0].UnitPriceText)
	assert.Equal(t, "20,00 €", doc.Rows[0].AmountText)
	assert.False(t, doc.Rows[0].Shaded())
	assert.True(t, doc.Rows[1].Shaded())

	assert.Equal(t, "40,00 €", doc.Totals.HTText)
	assert.Equal(t, "8,00 €", doc.Totals.VATText)
	assert.Equal(t, "48,00 €", doc.Totals.TTCText)
	assert.Equal(t, "TVA 20 %", doc.Totals.VATLabel)
}

func TestBuild_Variant(t *testing.T) {
	client := document.Build(fullInvoice(), nil, nil)
	assert.Equal(t, document.VariantClient, client.Variant)
	assert.False(t, client.HasWatermark())
	assert.Equal(t, "Exemplaire client", client.CopyLabel)

	company := document.Build(fullInvoice(), nil, nil, document.WithVariant(document.VariantCompany))
	assert.True(t, company.HasWatermark())
	assert.Equal(t, "COPIE ENTREPRISE", company.Watermark)
	assert.Equal(t, "Exemplaire entreprise", company.CopyLabel)
}

func TestBuild_MissingEmitterVAT(t *testing.T) {
	inv := fullInvoice()
	inv.Emitter.VATNumber = ""

	doc := document.Build(inv, nil, nil, document.WithFileChecker(allFilesExist))

	assert.True(t, doc.Emitter.VATExempt())
	assert.Equal(t, "TVA non applicable – art. 293 B du CGI", doc.Emitter.VATNumber.Value)
	assert.Contains(t, doc.LegalFooter, "TVA non applicable – art. 293 B du CGI")
	assert.True(t, doc.Defaulted("emitter.vat_number"))
}

func TestBuild_ClientFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		snapshot    model.ClientSnapshot
		profile     *model.ClientProfile
		wantName    string
		wantAddress []string
		defaulted   bool
	}{
		{
			name:        "snapshot wins over profile",
			snapshot:    model.ClientSnapshot{Name: "Snap", Address: "3 rue A"},
			profile:     &model.ClientProfile{Name: "Live", Address: "9 rue Z"},
			wantName:    "Snap",
			wantAddress: []string{"3 rue A"},
		},
		{
			name:        "profile fills gaps",
			snapshot:    model.ClientSnapshot{},
			profile:     &model.ClientProfile{CompanyName: "Live SARL", Street: "9 rue Z", City: "Nantes"},
			wantName:    "Live SARL",
			wantAddress: []string{"9 rue Z", "Nantes"},
		},
		{
			name:        "structured beats flat",
			snapshot:    model.ClientSnapshot{Name: "Snap", Address: "flat", City: "Lille"},
			wantName:    "Snap",
			wantAddress: []string{"Lille"},
		},
		{
			name:        "flat address split on br",
			snapshot:    model.ClientSnapshot{Name: "Snap", Address: "5 rue B<br>33000 Bordeaux"},
			wantName:    "Snap",
			wantAddress: []string{"5 rue B", "33000 Bordeaux"},
		},
		{
			name:        "flat snapshot address kept when profile is structured",
			snapshot:    model.ClientSnapshot{Name: "Snap", Address: "1 avenue Foch\n75016 Paris"},
			profile:     &model.ClientProfile{Street: "99 rue Nouvelle", City: "Lyon"},
			wantName:    "Snap",
			wantAddress: []string{"1 avenue Foch", "75016 Paris"},
		},
		{
			name:        "snapshot street not spliced with profile city",
			snapshot:    model.ClientSnapshot{Name: "Snap", Street: "1 avenue Foch"},
			profile:     &model.ClientProfile{PostalCode: "69001", City: "Lyon"},
			wantName:    "Snap",
			wantAddress: []string{"1 avenue Foch"},
		},
		{
			name:        "profile flat address used as a whole",
			snapshot:    model.ClientSnapshot{Name: "Snap"},
			profile:     &model.ClientProfile{Address: "7 quai Z<br>44000 Nantes"},
			wantName:    "Snap",
			wantAddress: []string{"7 quai Z", "44000 Nantes"},
		},
		{
			name:        "nothing known",
			snapshot:    model.ClientSnapshot{},
			wantName:    "-",
			wantAddress: []string{"-"},
			defaulted:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := fullInvoice()
			inv.Client = tt.snapshot

			doc := document.Build(inv, tt.profile, nil)

			assert.Equal(t, tt.wantName, doc.Client.Name.Value)
			assert.Equal(t, tt.wantAddress, doc.Client.BillingAddress.Value)
			assert.Equal(t, tt.defaulted, doc.Client.Name.Defaulted)
			assert.Equal(t, tt.defaulted, doc.Client.BillingAddress.Defaulted)
		})
	}
}

func TestBuild_ProfileEditedAfterIssue(t *testing.T) {
	inv := fullInvoice()
	inv.Client = model.ClientSnapshot{ClientID: "cli-1", Name: "Jean Martin", Address: "1 avenue Foch\n75016 Paris"}
	profile := &model.ClientProfile{ID: "cli-1", Name: "Jean Martin"}

	before := document.Build(inv, profile, nil)

	profile.Street = "99 rue Nouvelle"
	profile.PostalCode = "69001"
	profile.City = "Lyon"
	after := document.Build(inv, profile, nil)

	assert.Equal(t, []string{"1 avenue Foch", "75016 Paris"}, before.Client.BillingAddress.Value)
	assert.Equal(t, before.Client.BillingAddress, after.Client.BillingAddress)
}

func TestBuild_CompanyProfileNeverOverridesEmitter(t *testing.T) {
	inv := fullInvoice()
	company := &model.CompanyProfile{Name: "New Name", SIRET: "99999999999999", VATNumber: "FR99"}

	doc := document.Build(inv, nil, company)

	assert.Equal(t, "Atelier Dupont", doc.Emitter.Name.Value)
	assert.Equal(t, "12345678900012", doc.Emitter.SIRET.Value)
	assert.Equal(t, "FR12345678901", doc.Emitter.VATNumber.Value)
}

func TestBuild_LogoFallbackChain(t *testing.T) {
	existing := map[string]bool{
		"/logos/emitter.png": true,
		"/logos/company.jpg": true,
		"/logos/record.bmp":  true,
	}
	checker := func(p string) bool { return existing[p] }

	tests := []struct {
		name     string
		record   string
		emitter  string
		company  string
		wantPath string
	}{
		{"record missing on disk", "/logos/record.png", "/logos/emitter.png", "", "/logos/emitter.png"},
		{"unsupported extension skipped", "/logos/record.bmp", "", "/logos/company.jpg", "/logos/company.jpg"},
		{"company profile fallback", "", "", "/logos/company.jpg", "/logos/company.jpg"},
		{"placeholder", "", "", "/logos/gone.png", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := fullInvoice()
			inv.LogoPath = tt.record
			inv.Emitter.LogoPath = tt.emitter

			doc := document.Build(inv, nil, &model.CompanyProfile{LogoPath: tt.company},
				document.WithFileChecker(checker))

			assert.Equal(t, tt.wantPath, doc.Logo.Path)
			if tt.wantPath == "" {
				assert.Equal(t, "VOTRE LOGO", doc.Logo.Placeholder)
				assert.True(t, doc.Defaulted("logo"))
			}
		})
	}
}

func TestBuild_MetaFallbacks(t *testing.T) {
	inv := fullInvoice()
	inv.Number = ""
	inv.DueDate = ""
	inv.SaleDate = ""
	inv.Status = ""
	inv.Penalties = ""

	doc := document.Build(inv, nil, nil, document.WithFileChecker(allFilesExist))

	assert.Equal(t, "N/A", doc.Meta.Number.Value)
	assert.Equal(t, "Non spécifiée", doc.Meta.DueDate.Value)
	assert.Equal(t, "15/03/2024", doc.Meta.SaleDate.Value)
	assert.Equal(t, "Non payée", doc.Meta.Status.Value)
	assert.Equal(t, "Taux d'intérêt légal majoré de 10 points", doc.Meta.Penalties.Value)
	assert.Contains(t, doc.LegalFooter, "Date de règlement : Non spécifiée")
	assert.Len(t, doc.Warnings, 5)
}

func TestBuild_WarningsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	inv := fullInvoice()
	inv.Emitter.VATNumber = ""
	inv.Emitter.Phone = ""

	doc := document.Build(inv, nil, nil,
		document.WithLogger(zap.New(core)),
		document.WithFileChecker(allFilesExist),
	)

	require.Len(t, doc.Warnings, 2)
	assert.Equal(t, 2, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "field missing, placeholder used", entry.Message)
	assert.Equal(t, "inv-1", entry.ContextMap()["invoice_id"])
	assert.Equal(t, "emitter.vat_number", entry.ContextMap()["field"])
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "01/02/2024", document.FormatDate("2024-02-01"))
	assert.Equal(t, "demain", document.FormatDate("demain"))
}

func TestParseVariant(t *testing.T) {
	v, err := document.ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, document.VariantClient, v)

	v, err = document.ParseVariant("Company")
	require.NoError(t, err)
	assert.Equal(t, document.VariantCompany, v)
	assert.Equal(t, "company", v.String())

	_, err = document.ParseVariant("archive")
	assert.Error(t, err)
}
