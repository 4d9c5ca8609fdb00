package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rezonia/invoice-renderer/internal/model"
)

// MemoryStore keeps records in memory
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]*model.InvoiceRecord
	clients  map[string]*model.ClientProfile
	company  *model.CompanyProfile
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: make(map[string]*model.InvoiceRecord),
		clients:  make(map[string]*model.ClientProfile),
	}
}

// PutInvoice stores inv under its ID
func (s *MemoryStore) PutInvoice(inv *model.InvoiceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv
}

// PutClient stores c under its ID
func (s *MemoryStore) PutClient(c *model.ClientProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

// SetCompanyProfile replaces the company profile
func (s *MemoryStore) SetCompanyProfile(c *model.CompanyProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.company = c
}

func (s *MemoryStore) GetInvoice(ctx context.Context, id string) (*model.InvoiceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	return inv, nil
}

func (s *MemoryStore) GetClient(ctx context.Context, id string) (*model.ClientProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
	}
	return c, nil
}

func (s *MemoryStore) GetCompanyProfile(ctx context.Context) (*model.CompanyProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.company == nil {
		return nil, fmt.Errorf("%w: company profile", ErrNotFound)
	}
	return s.company, nil
}
