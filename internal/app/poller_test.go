package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/five82/readshelf/internal/api"
	"github.com/five82/readshelf/internal/library"
)

const (
	testInterval = 10 * time.Millisecond
	testWait     = 2 * time.Second
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingService serves a one-book library and counts library fetches.
type countingService struct {
	mu         sync.Mutex
	fetches    int
	libraryErr error
	recs       []api.Book
}

func (s *countingService) FetchLibrary(context.Context) ([]api.UserBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.libraryErr != nil {
		return nil, s.libraryErr
	}
	return []api.UserBook{{ID: "1", BookID: 10, Status: "TO_READ"}}, nil
}

func (s *countingService) FetchBook(_ context.Context, id int64) (api.Book, error) {
	return api.Book{ID: id, Title: "Dune", Author: []string{"Frank Herbert"}}, nil
}

func (s *countingService) FetchRecommendations(context.Context) ([]api.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Book(nil), s.recs...), nil
}

func (s *countingService) AddBook(_ context.Context, req api.AddRequest) (api.UserBook, error) {
	return api.UserBook{ID: "2", BookID: 11, Status: req.Status}, nil
}

func (s *countingService) UpdateRecord(context.Context, api.RecordID, api.RecordPatch) (*api.UserBook, error) {
	return nil, nil
}

func (s *countingService) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// runRefresher starts r and returns a func that stops it and waits.
func runRefresher(r *Refresher) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestRefresher_ReloadsOnInterval(t *testing.T) {
	svc := &countingService{recs: []api.Book{{ID: 20, Title: "Hyperion", Author: []string{"Dan Simmons"}}}}
	comps := newComponents(svc, false, zap.NewNop())

	stop := runRefresher(NewRefresher(comps, testInterval))
	defer stop()

	require.Eventually(t, func() bool { return svc.fetchCount() >= 2 }, testWait, testInterval)
	assert.Equal(t, 1, comps.Store.Len())
	assert.Equal(t, 1, comps.Recs.Len())
}

func TestRefresher_WaitsForInFlightMutations(t *testing.T) {
	svc := &countingService{}
	comps := newComponents(svc, false, zap.NewNop())
	require.NoError(t, refresh(context.Background(), comps))
	require.Equal(t, 1, svc.fetchCount())

	mu, err := comps.Mutator.StageStatus("1", library.StatusRead)
	require.NoError(t, err)

	stop := runRefresher(NewRefresher(comps, testInterval))
	defer stop()

	time.Sleep(5 * testInterval)
	assert.Equal(t, 1, svc.fetchCount(), "reload ran while a mutation was pending")
	rec, _ := comps.Store.Get("1")
	assert.Equal(t, library.StatusRead, rec.Status)

	require.NoError(t, mu.Commit(context.Background()))
	require.Eventually(t, func() bool { return svc.fetchCount() > 1 }, testWait, testInterval)
}

func TestRefresher_FailureKeepsRecords(t *testing.T) {
	svc := &countingService{}
	comps := newComponents(svc, false, zap.NewNop())
	require.NoError(t, refresh(context.Background(), comps))

	svc.mu.Lock()
	svc.libraryErr = errors.New("connection refused")
	svc.mu.Unlock()

	stop := runRefresher(NewRefresher(comps, testInterval))
	defer stop()

	require.Eventually(t, func() bool {
		return comps.Store.Snapshot().ConsecutiveFailures >= 1
	}, testWait, testInterval)
	assert.Equal(t, 1, comps.Store.Len())
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_LongIntervalNotShortened(t *testing.T) {
	if got := calculateBackoff(3, time.Minute); got != time.Minute {
		t.Fatalf("calculateBackoff(3, 1m) = %v, want 1m", got)
	}
}
