package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/five82/readshelf/internal/api"
)

const (
	testTimeout = 2 * time.Second
	testTick    = 10 * time.Millisecond
)

var errUnavailable = errors.New("service unavailable")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeService is an in-memory stand-in for the reading service.
type fakeService struct {
	mu sync.Mutex

	library    []api.UserBook
	books      map[int64]api.Book
	libraryErr error
	bookErr    map[int64]error
	addErr     error
	addStatus  string
	updateErr  error
	updateResp *api.UserBook

	// gate, when set, blocks UpdateRecord and AddBook until it is closed.
	gate chan struct{}

	adds    []api.AddRequest
	updates []recordedUpdate
	nextID  int
}

type recordedUpdate struct {
	ID    api.RecordID
	Patch api.RecordPatch
}

func (f *fakeService) FetchLibrary(ctx context.Context) ([]api.UserBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.libraryErr != nil {
		return nil, f.libraryErr
	}
	return append([]api.UserBook(nil), f.library...), nil
}

func (f *fakeService) FetchBook(ctx context.Context, id int64) (api.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.bookErr[id]; err != nil {
		return api.Book{}, err
	}
	b, ok := f.books[id]
	if !ok {
		return api.Book{}, fmt.Errorf("book %d not found", id)
	}
	return b, nil
}

func (f *fakeService) AddBook(ctx context.Context, req api.AddRequest) (api.UserBook, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, req)
	if f.addErr != nil {
		return api.UserBook{}, f.addErr
	}
	f.nextID++
	status := req.Status
	if f.addStatus != "" {
		status = f.addStatus
	}
	return api.UserBook{
		ID:     api.RecordID(fmt.Sprintf("r-%d", f.nextID)),
		BookID: int64(100 + f.nextID),
		Status: status,
	}, nil
}

func (f *fakeService) UpdateRecord(ctx context.Context, id api.RecordID, patch api.RecordPatch) (*api.UserBook, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, recordedUpdate{ID: id, Patch: patch})
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateResp, nil
}

func (f *fakeService) wait(ctx context.Context) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate == nil {
		return
	}
	select {
	case <-gate:
	case <-ctx.Done():
	}
}

// setLibrary replaces what FetchLibrary and FetchBook return.
func (f *fakeService) setLibrary(items []api.UserBook, details map[int64]api.Book) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.library = items
	f.books = details
}

func (f *fakeService) addCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adds)
}

func (f *fakeService) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func ratingPtr(v float64) *float64 {
	return &v
}
