// Package store persists the MFI catalog: in memory, in postgres, and behind
// a redis read-through cache.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"grameengo/internal/mfi/models"
	id "grameengo/pkg/domain"
	"grameengo/pkg/platform/sentinel"
)

// InMemory is a thread-safe catalog store.
type InMemory struct {
	mu       sync.RWMutex
	mfis     map[id.MFIID]*models.MFI
	products map[id.LoanProductID]*models.LoanProduct
}

func NewInMemory() *InMemory {
	return &InMemory{
		mfis:     make(map[id.MFIID]*models.MFI),
		products: make(map[id.LoanProductID]*models.LoanProduct),
	}
}

// List returns every MFI ordered by name.
func (s *InMemory) List(_ context.Context) ([]*models.MFI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.MFI, 0, len(s.mfis))
	for _, m := range s.mfis {
		c := *m
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.MFI) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, mfiID id.MFIID) (*models.MFI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mfis[mfiID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *m
	return &c, nil
}

// Create stores m. Names are unique case-insensitively.
func (s *InMemory) Create(_ context.Context, m *models.MFI) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mfis[m.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	for _, existing := range s.mfis {
		if strings.EqualFold(existing.Name, m.Name) {
			return sentinel.ErrAlreadyUsed
		}
	}
	c := *m
	s.mfis[m.ID] = &c
	return nil
}

// ListProducts returns products ordered by MFI then name. A nil mfiID lists
// every product.
func (s *InMemory) ListProducts(_ context.Context, mfiID *id.MFIID) ([]*models.LoanProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.LoanProduct, 0, len(s.products))
	for _, p := range s.products {
		if mfiID != nil && p.MFIID != *mfiID {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.LoanProduct) int {
		if c := strings.Compare(a.MFIID.String(), b.MFIID.String()); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *InMemory) CreateProduct(_ context.Context, p *models.LoanProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mfis[p.MFIID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.products[p.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	c := *p
	s.products[p.ID] = &c
	return nil
}
