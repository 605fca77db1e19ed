// Package recommend holds the recommendations shown next to the library.
// Generation happens on the service; this package only keeps the list in
// step with what the user has already added.
package recommend

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/readshelf/internal/api"
	"github.com/five82/readshelf/internal/books"
)

// Fetcher returns the current recommendations.
type Fetcher interface {
	FetchRecommendations(ctx context.Context) ([]api.Book, error)
}

// Item is one recommended book.
type Item struct {
	BookID int64
	Book   books.Details
}

// Identity returns the identity used to match the item against the library.
func (i Item) Identity() books.Identity {
	return i.Book.Identity(i.BookID)
}

// List is a concurrency-safe list of recommendations.
type List struct {
	mu     sync.RWMutex
	items  []Item
	logger *zap.Logger
}

// NewList returns an empty list.
func NewList(logger *zap.Logger) *List {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &List{logger: logger}
}

// Load fetches recommendations and replaces the list, leaving out books
// that match any identity in owned.
func (l *List) Load(ctx context.Context, svc Fetcher, owned []books.Identity) ([]Item, error) {
	fetched, err := svc.FetchRecommendations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recommendations: %w", err)
	}
	return l.Replace(fetched, owned), nil
}

// Replace swaps in a new set of recommendations. Entries without a title,
// entries already owned, and repeats within the batch are dropped.
func (l *List) Replace(fetched []api.Book, owned []books.Identity) []Item {
	items := make([]Item, 0, len(fetched))
	seen := make([]books.Identity, 0, len(fetched))
	for _, b := range fetched {
		item := Item{BookID: b.ID, Book: b.Details()}
		if item.Book.Title == "" {
			continue
		}
		id := item.Identity()
		if books.IsDuplicate(id, owned) || books.IsDuplicate(id, seen) {
			continue
		}
		seen = append(seen, id)
		items = append(items, item)
	}

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()

	l.logger.Debug("recommendations replaced", zap.Int("fetched", len(fetched)), zap.Int("kept", len(items)))
	return cloneItems(items)
}

// Items returns a copy of the list.
func (l *List) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneItems(l.items)
}

// Len returns the number of items.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// RemoveByIdentity drops every item denoting the same work as identity and
// returns how many were removed.
func (l *List) RemoveByIdentity(identity books.Identity) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]Item, 0, len(l.items))
	for _, item := range l.items {
		if books.SameWork(identity, item.Identity()) {
			continue
		}
		kept = append(kept, item)
	}
	removed := len(l.items) - len(kept)
	l.items = kept
	return removed
}

// Consume marks a recommendation as taken by the user. It matches the
// library.MutatorOptions.Consumed hook.
func (l *List) Consume(identity books.Identity) {
	if n := l.RemoveByIdentity(identity); n > 0 {
		l.logger.Debug("recommendation consumed", zap.String("title", identity.Title), zap.Int("removed", n))
	}
}

func cloneItems(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = Item{BookID: item.BookID, Book: item.Book.Clone()}
	}
	return out
}
