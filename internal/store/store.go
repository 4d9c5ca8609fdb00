package store

import (
	"context"
	"errors"

	"github.com/rezonia/invoice-renderer/internal/model"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// Repository reads the records the renderer needs
type Repository interface {
	GetInvoice(ctx context.Context, id string) (*model.InvoiceRecord, error)
	GetClient(ctx context.Context, id string) (*model.ClientProfile, error)
	GetCompanyProfile(ctx context.Context) (*model.CompanyProfile, error)
}

// Profiles loads the live client and company profiles of an invoice.
// Missing profiles are not an error: the snapshots carry the data.
func Profiles(ctx context.Context, repo Repository, inv *model.InvoiceRecord) (*model.ClientProfile, *model.CompanyProfile, error) {
	var client *model.ClientProfile
	if inv.Client.ClientID != "" {
		c, err := repo.GetClient(ctx, inv.Client.ClientID)
		switch {
		case err == nil:
			client = c
		case !errors.Is(err, ErrNotFound):
			return nil, nil, err
		}
	}

	company, err := repo.GetCompanyProfile(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}
	return client, company, nil
}
