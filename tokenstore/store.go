// Package tokenstore holds the app's single live OAuth credential, in memory
// and in a pluggable persistence backend.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fetchit-auth/models"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// ErrInvalidCredential is returned when linking a credential without an access token.
var ErrInvalidCredential = errors.New("credential has no access token")

// Persister is the durable copy of the credential.
type Persister interface {
	// Load returns false when nothing is stored.
	Load(ctx context.Context) (models.OAuthCredential, bool, error)
	Save(ctx context.Context, cred models.OAuthCredential) error
	Delete(ctx context.Context) error
}

// Store keeps the in-memory credential and its persisted copy in step.
// Writers persist while holding the write lock, so readers only ever observe
// both copies before or both copies after a change.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	cred      *models.OAuthCredential
}

// New returns an empty store. Call Hydrate to load the persisted credential.
func New(persister Persister) *Store {
	return &Store{persister: persister}
}

// Link replaces the current credential in full.
func (s *Store) Link(ctx context.Context, cred models.OAuthCredential) error {
	if cred.AccessToken == "" {
		return ErrInvalidCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persister.Save(ctx, cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	s.cred = &cred
	return nil
}

// Unlink forgets the credential in memory and in storage.
// On a storage error both copies are left as they were.
func (s *Store) Unlink(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persister.Delete(ctx); err != nil {
		return fmt.Errorf("remove persisted credential: %w", err)
	}
	s.cred = nil
	return nil
}

// Get returns the current credential, if any.
func (s *Store) Get() (models.OAuthCredential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred == nil {
		return models.OAuthCredential{}, false
	}
	return *s.cred, true
}

// IsLinked reports whether a credential is held.
func (s *Store) IsLinked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil
}

// Hydrate loads the persisted credential into memory at process start.
// A stored credential without an access token is treated as unlinked.
// On a load error the store stays unlinked and the error is returned.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok, err := s.persister.Load(ctx)
	if err != nil {
		s.cred = nil
		logger.Error("Error hydrating OAuth credential", zap.Error(err))
		return fmt.Errorf("load credential: %w", err)
	}
	if !ok || cred.AccessToken == "" {
		s.cred = nil
		return nil
	}
	s.cred = &cred
	return nil
}
