// Package invoicelib provides a public API for rendering French invoices.
//
// This package exposes the core types and an Engine that validates invoice
// records, computes their totals and renders them to PDF, HTML or XLSX.
//
// Example usage:
//
//	engine := invoicelib.NewEngine()
//	res, err := engine.Render(ctx, w, inv, invoicelib.VariantClient, invoicelib.FormatPDF)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Pages)
package invoicelib

import (
	"github.com/rezonia/invoice-renderer/internal/document"
	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/money"
	"github.com/rezonia/invoice-renderer/internal/render"
	"github.com/rezonia/invoice-renderer/internal/store"
)

// Re-export core types for public API
type (
	InvoiceRecord   = model.InvoiceRecord
	LineItem        = model.LineItem
	EmitterSnapshot = model.EmitterSnapshot
	ClientSnapshot  = model.ClientSnapshot
	ClientProfile   = model.ClientProfile
	CompanyProfile  = model.CompanyProfile
	Status          = model.Status
	Totals          = money.Totals
	Document        = document.Document
	FieldWarning    = document.FieldWarning
	Variant         = document.Variant
	Format          = render.Backend
	Result          = render.Result
	Report          = render.Report
	Repository      = store.Repository
)

// Re-export status constants
const (
	StatusPaid   = model.StatusPaid
	StatusUnpaid = model.StatusUnpaid
)

// Re-export document copies
const (
	VariantClient  = document.VariantClient
	VariantCompany = document.VariantCompany
)

// Re-export output formats
const (
	FormatPDF  = render.BackendBinary
	FormatHTML = render.BackendFlow
	FormatXLSX = render.BackendSheet
)

// Re-export error types
type (
	ValidationError  = model.ValidationError
	ValidationErrors = model.ValidationErrors
	RenderError      = model.RenderError
)

// ErrNotFound is returned when a repository has no such record
var ErrNotFound = store.ErrNotFound

// ParseFormat accepts pdf, html or xlsx
func ParseFormat(s string) (Format, error) {
	return render.ParseBackend(s)
}

// ParseVariant accepts client or company
func ParseVariant(s string) (Variant, error) {
	return document.ParseVariant(s)
}
