package resolve

import (
	"context"
	"fmt"

	"github.com/andywolf/msccrafter/internal/cache"
	"github.com/andywolf/msccrafter/internal/msc"
)

// ProposalResolver resolves a proposal at the requested render depth.
type ProposalResolver interface {
	Resolve(ctx context.Context, number int, fullRender bool) (*msc.MSC, error)
}

// Service fronts a resolver with the proposal cache: cache hits are served
// directly, misses resolve remotely and are written back with a computed
// expiry.
type Service struct {
	resolver ProposalResolver
	cache    *cache.Cache
	online   func() bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithOnlineFunc sets the connectivity probe consulted on cache reads.
// Offline callers accept expired entries rather than failing a fetch.
func WithOnlineFunc(fn func() bool) ServiceOption {
	return func(s *Service) {
		s.online = fn
	}
}

// NewService creates a cache-fronted loading service.
func NewService(resolver ProposalResolver, c *cache.Cache, opts ...ServiceOption) *Service {
	s := &Service{
		resolver: resolver,
		cache:    c,
		online:   func() bool { return true },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load returns the proposal, from cache when a usable entry exists and
// useCache is set, resolving remotely otherwise. Successful resolutions are
// written back to the cache; a cancelled context never is, so an abandoned
// request cannot overwrite the cache with data the caller no longer wants.
func (s *Service) Load(ctx context.Context, number int, fullRender, useCache bool) (*msc.MSC, error) {
	if useCache {
		if entry, ok := s.cache.Get(number, fullRender, s.online()); ok {
			m := entry.MSC
			return &m, nil
		}
	}

	m, err := s.resolver.Resolve(ctx, number, fullRender)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.cache.Put(number, m, fullRender); err != nil {
		return nil, fmt.Errorf("failed to cache MSC%d: %w", number, err)
	}
	return m, nil
}

// Cached returns every locally cached proposal entry.
func (s *Service) Cached() []cache.Entry {
	return s.cache.Entries()
}
