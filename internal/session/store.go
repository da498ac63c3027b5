// Package session persists the authenticated session between process runs.
//
// Gateways restore the last session from a Store when they are constructed,
// save every replacement (sign-in, refresh) and clear it on sign-out.
package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/carfinder/internal/models"
)

// Store saves and restores one session.
//
// Load returns (nil, nil) when nothing has been saved.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session for the lifetime of the process only.
type MemoryStore struct {
	mu sync.Mutex
	s  *models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
