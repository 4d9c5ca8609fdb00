package server

import "github.com/rezonia/invoice-renderer/internal/money"

// ValidationResponse is the response for invalid invoices and the validate endpoint
type ValidationResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TotalsResponse is the response for the totals endpoint.
// Amounts are strings with two decimals; exact values keep full precision.
type TotalsResponse struct {
	InvoiceID string `json:"invoice_id"`
	VATRate   string `json:"vat_rate"`
	HT        string `json:"ht"`
	VAT       string `json:"vat"`
	TTC       string `json:"ttc"`
	HTExact   string `json:"ht_exact"`
	VATExact  string `json:"vat_exact"`
	TTCExact  string `json:"ttc_exact"`
	// Gap is TTC - (HT + VAT) after rounding; at most one cent
	Gap string `json:"gap"`
}

func newTotalsResponse(id string, t money.Totals) TotalsResponse {
	return TotalsResponse{
		InvoiceID: id,
		VATRate:   t.VATRate.String(),
		HT:        t.HT.StringFixed(2),
		VAT:       t.VAT.StringFixed(2),
		TTC:       t.TTC.StringFixed(2),
		HTExact:   t.HTExact.String(),
		VATExact:  t.VATExact.String(),
		TTCExact:  t.TTCExact.String(),
		Gap:       t.ReconciliationGap().StringFixed(2),
	}
}
