package tracker

import (
	"context"
	"errors"
)

// CredentialPool hands out GitHub tokens to repository workers. Tokens are
// borrowed for the length of one lint and returned afterwards, FIFO, so the
// load spreads evenly across them.
type CredentialPool struct {
	tokens chan string
}

// NewCredentialPool builds a pool from the configured tokens. At least one
// token is required.
func NewCredentialPool(tokens []string) (*CredentialPool, error) {
	if len(tokens) == 0 {
		return nil, errors.New("no github tokens provided")
	}
	ch := make(chan string, len(tokens))
	for _, t := range tokens {
		ch <- t
	}
	return &CredentialPool{tokens: ch}, nil
}

// Acquire blocks until a token is available or the context ends.
func (p *CredentialPool) Acquire(ctx context.Context) (string, error) {
	select {
	case t := <-p.tokens:
		return t, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Release returns a borrowed token. Must be called exactly once per
// successful Acquire, on every outcome.
func (p *CredentialPool) Release(token string) {
	p.tokens <- token
}
