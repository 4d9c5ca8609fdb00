package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rezonia/invoice-renderer/internal/model"
)

// FileStore reads JSON records from a data directory:
//
//	<dir>/invoices/<id>.json
//	<dir>/clients/<id>.json
//	<dir>/company.json
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the data directory
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) GetInvoice(ctx context.Context, id string) (*model.InvoiceRecord, error) {
	var inv model.InvoiceRecord
	if err := s.read(ctx, filepath.Join("invoices", id+".json"), id, &inv); err != nil {
		return nil, err
	}
	if inv.ID == "" {
		inv.ID = id
	}
	return &inv, nil
}

func (s *FileStore) GetClient(ctx context.Context, id string) (*model.ClientProfile, error) {
	var c model.ClientProfile
	if err := s.read(ctx, filepath.Join("clients", id+".json"), id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *FileStore) GetCompanyProfile(ctx context.Context) (*model.CompanyProfile, error) {
	var c model.CompanyProfile
	if err := s.read(ctx, "company.json", "company", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListInvoices returns the IDs of every stored invoice, sorted
func (s *FileStore) ListInvoices(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, "invoices"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

func (s *FileStore) read(ctx context.Context, rel, id string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validID(id) {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return fmt.Errorf("read %s: %w", rel, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", rel, err)
	}
	return nil
}

// validID rejects ids that would escape the data directory
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
