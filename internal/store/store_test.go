package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-renderer/internal/model"
	"github.com/rezonia/invoice-renderer/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedDir(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "invoices", "inv-1.json"), `{
		"number": "FACT-2024-001",
		"issue_date": "2024-03-15",
		"lines": [{"description": "Conseil", "quantity": 2, "unit_price": "10"}],
		"emitter": {"name": "Atelier Dupont"},
		"client": {"client_id": "cli-1", "name": "Jean Martin"}
	}`)
	writeFile(t, filepath.Join(dir, "clients", "cli-1.json"), `{"id": "cli-1", "company_name": "ACME SAS"}`)
	writeFile(t, filepath.Join(dir, "company.json"), `{"name": "Atelier Dupont", "logo_path": "/logos/a.png"}`)
	writeFile(t, filepath.Join(dir, "invoices", "broken.json"), `{not json`)
	return dir
}

func TestFileStore_GetInvoice(t *testing.T) {
	s := store.NewFileStore(seedDir(t))

	inv, err := s.GetInvoice(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", inv.ID)
	assert.Equal(t, "FACT-2024-001", inv.Number)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "20.00", inv.Totals().HT.StringFixed(2))
}

func TestFileStore_Errors(t *testing.T) {
	s := store.NewFileStore(seedDir(t))
	ctx := context.Background()

	_, err := s.GetInvoice(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetInvoice(ctx, "../company")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetInvoice(ctx, "broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.GetInvoice(cancelled, "inv-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore_ListInvoices(t *testing.T) {
	s := store.NewFileStore(seedDir(t))

	ids, err := s.ListInvoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "inv-1"}, ids)

	empty, err := store.NewFileStore(t.TempDir()).ListInvoices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProfiles(t *testing.T) {
	s := store.NewFileStore(seedDir(t))
	ctx := context.Background()

	inv, err := s.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)

	client, company, err := store.Profiles(ctx, s, inv)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "ACME SAS", client.CompanyName)
	require.NotNil(t, company)
	assert.Equal(t, "/logos/a.png", company.LogoPath)
}

func TestProfiles_MissingAreIgnored(t *testing.T) {
	s := store.NewMemoryStore()
	inv := &model.InvoiceRecord{ID: "x", Client: model.ClientSnapshot{ClientID: "ghost"}}

	client, company, err := store.Profiles(context.Background(), s, inv)
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Nil(t, company)
}

func TestMemoryStore(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetInvoice(ctx, "inv-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	s.PutInvoice(&model.InvoiceRecord{ID: "inv-1", Number: "FACT-1"})
	s.PutClient(&model.ClientProfile{ID: "cli-1", Name: "Jean"})
	s.SetCompanyProfile(&model.CompanyProfile{Name: "Dupont"})

	inv, err := s.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "FACT-1", inv.Number)

	c, err := s.GetClient(ctx, "cli-1")
	require.NoError(t, err)
	assert.Equal(t, "Jean", c.Name)

	p, err := s.GetCompanyProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dupont", p.Name)
}
