package memory

import (
	"context"
	"sync"
	"time"
)

type RevokedTokenRepo struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewRevokedTokenRepo() *RevokedTokenRepo {
	return &RevokedTokenRepo{tokens: make(map[string]time.Time)}
}

func (r *RevokedTokenRepo) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		r.tokens[token] = time.Now()
	}
	return nil
}

func (r *RevokedTokenRepo) IsRevoked(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tokens[token]
	return ok, nil
}
