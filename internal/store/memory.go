package store

import (
	"context"
	"sync"

	"github.com/ppiankov/enquete/internal/model"
)

// MemoryRepository holds the encoded document in memory
type MemoryRepository struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryRepository returns an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load decodes a fresh copy, so callers never share state with the store
func (r *MemoryRepository) Load(ctx context.Context) ([]model.CaseData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return decode(r.data)
}

func (r *MemoryRepository) Save(ctx context.Context, cases []model.CaseData) error {
	data, err := encode(cases)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.data = data
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Close() error { return nil }
