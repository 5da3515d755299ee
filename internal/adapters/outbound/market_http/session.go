package market_http

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// StaticToken is a token supplied up front, e.g. from SF_API_TOKEN.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNotLoggedIn
	}
	return string(t), nil
}

// LazyToken loads the token on first use and caches it. Concurrent first
// requests (a split batch starting up) share a single load.
type LazyToken struct {
	load  func() (string, error)
	group singleflight.Group

	mu    sync.RWMutex
	token string
}

func NewLazyToken(load func() (string, error)) *LazyToken {
	return &LazyToken{load: load}
}

func (l *LazyToken) Token(ctx context.Context) (string, error) {
	l.mu.RLock()
	tok := l.token
	l.mu.RUnlock()
	if tok != "" {
		return tok, nil
	}

	v, err, _ := l.group.Do("token", func() (any, error) {
		l.mu.RLock()
		cached := l.token
		l.mu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		tok, err := l.load()
		if err != nil {
			return "", err
		}
		if tok == "" {
			return "", ErrNotLoggedIn
		}
		l.mu.Lock()
		l.token = tok
		l.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
