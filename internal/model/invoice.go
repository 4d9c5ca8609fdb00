package model

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/invoice-renderer/internal/money"
)

// Status represents the payment status of an invoice
type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

// Label returns the French display label of the status
func (s Status) Label() string {
	switch s {
	case StatusPaid:
		return "Payée"
	case StatusUnpaid:
		return "Non payée"
	default:
		return string(s)
	}
}

// InvoiceRecord is the persisted invoice as read from storage.
// Emitter and client blocks are snapshots taken when the invoice was issued.
type InvoiceRecord struct {
	ID        string           `json:"id" validate:"required"`
	Number    string           `json:"number"`
	IssueDate string           `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate   string           `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SaleDate  string           `json:"sale_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	VATRate   *decimal.Decimal `json:"vat_rate,omitempty"`
	Status    Status           `json:"status" validate:"omitempty,oneof=paid unpaid"`
	LogoPath  string           `json:"logo_path,omitempty"`
	Penalties string           `json:"penalties,omitempty"`
	Lines     []LineItem       `json:"lines" validate:"dive"`
	Emitter   EmitterSnapshot  `json:"emitter"`
	Client    ClientSnapshot   `json:"client"`
}

// LineItem is a single billed line
type LineItem struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Unit        string          `json:"unit,omitempty"`
}

// Amount returns quantity * unit price, unrounded
func (l LineItem) Amount() decimal.Decimal {
	return money.LineAmount(l.Quantity, l.UnitPrice)
}

// EmitterSnapshot holds the issuing company's details frozen at issue time
type EmitterSnapshot struct {
	Name       string `json:"name"`
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	SIRET      string `json:"siret,omitempty" validate:"omitempty,siret"`
	SIREN      string `json:"siren,omitempty"`
	APE        string `json:"ape,omitempty"`
	VATNumber  string `json:"vat_number,omitempty"`
	RCS        string `json:"rcs,omitempty"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string `json:"phone,omitempty"`
	LogoPath   string `json:"logo_path,omitempty"`
}

// ClientSnapshot holds the billed client's details frozen at issue time
type ClientSnapshot struct {
	ClientID        string `json:"client_id,omitempty"`
	Name            string `json:"name,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
	Street          string `json:"street,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	City            string `json:"city,omitempty"`
	Address         string `json:"address,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	VATNumber       string `json:"vat_number,omitempty"`
}

// ClientProfile is the live client record
type ClientProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Street      string `json:"street,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	City        string `json:"city,omitempty"`
	Address     string `json:"address,omitempty"`
	VATNumber   string `json:"vat_number,omitempty"`
	Email       string `json:"email,omitempty"`
}

// CompanyProfile is the live profile of the issuing company
type CompanyProfile struct {
	Name      string `json:"name,omitempty"`
	SIRET     string `json:"siret,omitempty"`
	VATNumber string `json:"vat_number,omitempty"`
	LogoPath  string `json:"logo_path,omitempty"`
}

// VATRateOrDefault returns the invoice VAT rate, or the default 20% when unset
func (inv *InvoiceRecord) VATRateOrDefault() decimal.Decimal {
	if inv.VATRate == nil {
		return money.DefaultVATRate
	}
	return *inv.VATRate
}

// MoneyLines converts line items to their monetary view
func (inv *InvoiceRecord) MoneyLines() []money.Line {
	lines := make([]money.Line, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = money.Line{Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return lines
}

// Totals computes the invoice totals from its lines and VAT rate
func (inv *InvoiceRecord) Totals() money.Totals {
	return money.ComputeTotals(inv.MoneyLines(), inv.VATRateOrDefault())
}
