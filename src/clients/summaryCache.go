package clients

import (
	"context"
	"sync"
	"time"
)

type summaryEntry struct {
	summary   BookSummary
	expiresAt time.Time
}

// CachedBookGateway keeps book summaries for a while so list endpoints do not
// hit the Books service once per row. Availability and stock calls are never cached.
type CachedBookGateway struct {
	next BookGateway
	ttl  time.Duration
	now  func() time.Time

	mutex sync.RWMutex
	cache map[int]*summaryEntry
}

// NewCachedBookGateway wraps next with a summary cache of the given TTL.
func NewCachedBookGateway(next BookGateway, ttl time.Duration) *CachedBookGateway {
	return &CachedBookGateway{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[int]*summaryEntry),
	}
}

// StartCleanup drops expired entries every interval until ctx is done.
func (g *CachedBookGateway) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.cleanup()
			}
		}
	}()
}

func (g *CachedBookGateway) cleanup() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	now := g.now()
	for id, entry := range g.cache {
		if now.After(entry.expiresAt) {
			delete(g.cache, id)
		}
	}
}

func (g *CachedBookGateway) get(bookID int) (*BookSummary, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	entry, ok := g.cache[bookID]
	if !ok || g.now().After(entry.expiresAt) {
		return nil, false
	}
	copied := entry.summary
	return &copied, true
}

func (g *CachedBookGateway) set(summary *BookSummary, bookID int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.cache[bookID] = &summaryEntry{summary: *summary, expiresAt: g.now().Add(g.ttl)}
}

func (g *CachedBookGateway) invalidate(bookID int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	delete(g.cache, bookID)
}

// Len reports how many entries are cached, expired ones included.
func (g *CachedBookGateway) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.cache)
}

func (g *CachedBookGateway) IsAvailable(ctx context.Context, bookID int) (bool, error) {
	return g.next.IsAvailable(ctx, bookID)
}

func (g *CachedBookGateway) FetchSummary(ctx context.Context, bookID int) (*BookSummary, error) {
	if cached, ok := g.get(bookID); ok {
		return cached, nil
	}
	summary, err := g.next.FetchSummary(ctx, bookID)
	if err != nil {
		return nil, err
	}
	g.set(summary, bookID)
	return summary, nil
}

func (g *CachedBookGateway) DecrementStock(ctx context.Context, bookID int) error {
	defer g.invalidate(bookID)
	return g.next.DecrementStock(ctx, bookID)
}

func (g *CachedBookGateway) IncrementStock(ctx context.Context, bookID int) error {
	defer g.invalidate(bookID)
	return g.next.IncrementStock(ctx, bookID)
}
