package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/readshelf/internal/api"
	"github.com/five82/readshelf/internal/books"
)

// detailFetchLimit bounds concurrent book detail requests during Load.
const detailFetchLimit = 4

// Fetcher is the read half of the library service.
type Fetcher interface {
	FetchLibrary(ctx context.Context) ([]api.UserBook, error)
	FetchBook(ctx context.Context, id int64) (api.Book, error)
}

// Snapshot represents the library as last seen by the UI.
type Snapshot struct {
	Records             []Record
	Loaded              bool
	LastLoaded          time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the service has been unreachable for multiple loads.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Shelf returns the records on the given shelf.
func (s Snapshot) Shelf(status Status) []Record {
	return GroupByStatus(s.Records)[status]
}

// Store holds the client-side view of the library. Records keep insertion
// order and are unique by RecordID.
type Store struct {
	mu       sync.RWMutex
	records  []Record
	index    map[string]int
	snapshot Snapshot // metadata only; records live above

	// pinned records have a staged change; a fetch keeps their local copy.
	pinned map[string]struct{}
	// settled maps records whose change resolved to the load epoch current
	// at that moment. A fetch begun before then keeps the local copy too.
	settled map[string]uint64
	active  map[uint64]struct{}
	epoch   uint64

	logger *zap.Logger
}

// NewStore returns an empty store that logs to logger.
func NewStore(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

func (s *Store) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// Load fetches the whole library and replaces the store with it. On failure
// the previous records are kept and a *FetchError is returned.
func (s *Store) Load(ctx context.Context, svc Fetcher) ([]Record, error) {
	s.mu.Lock()
	s.epoch++
	started := s.epoch
	if s.active == nil {
		s.active = make(map[uint64]struct{})
	}
	s.active[started] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.active, started)
		s.mu.Unlock()
	}()

	items, err := svc.FetchLibrary(ctx)
	if err != nil {
		return nil, s.loadFailed(err)
	}

	details, err := s.fetchDetails(ctx, svc, items)
	if err != nil {
		return nil, s.loadFailed(err)
	}

	records := make([]Record, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		rec, err := recordFromUserBook(item)
		if err != nil {
			s.log().Warn("skipping library entry", zap.Error(err))
			continue
		}
		if _, dup := seen[rec.RecordID]; dup {
			s.log().Warn("duplicate record id from service", zap.String("record_id", rec.RecordID))
			continue
		}
		seen[rec.RecordID] = struct{}{}
		if d, ok := details[rec.BookID]; ok {
			rec.Book = d.Clone()
		}
		records = append(records, rec)
	}

	s.mu.Lock()
	s.setRecordsLocked(s.mergeLocalLocked(records, started))
	s.snapshot.Loaded = true
	s.snapshot.LastLoaded = time.Now()
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	out := cloneRecords(s.records)
	s.mu.Unlock()

	s.log().Debug("library loaded", zap.Int("records", len(out)))
	return out, nil
}

func (s *Store) loadFailed(err error) error {
	ferr := &FetchError{Err: err}
	s.mu.Lock()
	s.snapshot.LastError = ferr
	s.snapshot.LastLoaded = time.Now()
	s.snapshot.ConsecutiveFailures++
	failures := s.snapshot.ConsecutiveFailures
	s.mu.Unlock()
	s.log().Warn("library load failed", zap.Error(err), zap.Int("consecutive_failures", failures))
	return ferr
}

// fetchDetails loads book details for every distinct book id. A failed
// lookup leaves that book without details; only cancellation aborts the load.
func (s *Store) fetchDetails(ctx context.Context, svc Fetcher, items []api.UserBook) (map[int64]books.Details, error) {
	var (
		mu      sync.Mutex
		details = make(map[int64]books.Details)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailFetchLimit)

	requested := make(map[int64]struct{})
	for _, item := range items {
		id := item.BookID
		if id <= 0 || item.Book != nil {
			continue
		}
		if _, ok := requested[id]; ok {
			continue
		}
		requested[id] = struct{}{}

		g.Go(func() error {
			book, err := svc.FetchBook(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log().Warn("book details unavailable", zap.Int64("book_id", id), zap.Error(err))
				return nil
			}
			mu.Lock()
			details[id] = book.Details()
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch book details: %w", err)
	}
	return details, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Records = cloneRecords(s.records)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Records returns a copy of all records in order.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with the given id.
func (s *Store) Get(recordID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[recordID]
	if !ok {
		return Record{}, false
	}
	return s.records[idx].Clone(), true
}

// FindByIdentity returns the first record that denotes the same work.
func (s *Store) FindByIdentity(identity books.Identity) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if books.SameWork(identity, rec.Identity()) {
			return rec.Clone(), true
		}
	}
	return Record{}, false
}

// Identities returns the identity of every record.
func (s *Store) Identities() []books.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]books.Identity, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Identity()
	}
	return out
}

// UpsertLocal inserts rec, or replaces the record with the same RecordID in
// place. The service is not contacted.
func (s *Store) UpsertLocal(rec Record) error {
	if rec.RecordID == "" {
		return fmt.Errorf("upsert: record id required")
	}
	s.put(rec)
	return nil
}

// put inserts or replaces a copy of rec. Callers guarantee a RecordID.
func (s *Store) put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(rec.Clone())
}

// removeLocal drops the record stored under recordID, if any.
func (s *Store) removeLocal(recordID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[recordID]
	if !ok {
		return false
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.reindexLocked()
	return true
}

// RemoveLocalByIdentity drops every record that denotes the same work as
// identity and returns how many were removed.
func (s *Store) RemoveLocalByIdentity(identity books.Identity) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if books.SameWork(identity, rec.Identity()) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	if removed > 0 {
		s.setRecordsLocked(kept)
	}
	return removed
}

// replaceLocal swaps the record stored under oldID for rec, keeping its
// position. It inserts rec when oldID is gone.
func (s *Store) replaceLocal(oldID string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[oldID]
	if !ok {
		s.upsertLocked(rec)
		return
	}
	if existing, clash := s.index[rec.RecordID]; clash && existing != idx {
		// The confirmed record already arrived through a reload.
		s.records = append(s.records[:idx], s.records[idx+1:]...)
		s.reindexLocked()
		s.upsertLocked(rec)
		return
	}
	delete(s.index, oldID)
	s.records[idx] = rec
	s.index[rec.RecordID] = idx
}

// modify applies fn to the record with the given id under the write lock.
func (s *Store) modify(recordID string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[recordID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	fn(&s.records[idx])
	return nil
}

// stage applies fn like modify and pins the record until settle is called.
func (s *Store) stage(recordID string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[recordID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, recordID)
	}
	fn(&s.records[idx])
	if s.pinned == nil {
		s.pinned = make(map[string]struct{})
	}
	s.pinned[recordID] = struct{}{}
	return nil
}

// settle unpins a staged record once its change is confirmed or rolled back.
func (s *Store) settle(recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pinned, recordID)
	if s.settled == nil {
		s.settled = make(map[string]uint64)
	}
	s.settled[recordID] = s.epoch
}

// mergeLocalLocked carries local state into a fetched record set. Records
// with a change in flight, or one resolved after the fetch started, keep the
// local copy. Provisional records stay until the fetch holds the same work.
func (s *Store) mergeLocalLocked(fetched []Record, started uint64) []Record {
	for i, rec := range fetched {
		idx, ok := s.index[rec.RecordID]
		if !ok {
			continue
		}
		_, pinned := s.pinned[rec.RecordID]
		at, settled := s.settled[rec.RecordID]
		if pinned || (settled && at >= started) {
			fetched[i] = s.records[idx]
		}
	}
	oldest := started
	for epoch := range s.active {
		oldest = min(oldest, epoch)
	}
	for id, at := range s.settled {
		if at < oldest {
			delete(s.settled, id)
		}
	}

	for _, local := range s.records {
		if !local.Provisional {
			continue
		}
		owned := false
		for _, rec := range fetched {
			if books.SameWork(local.Identity(), rec.Identity()) {
				owned = true
				break
			}
		}
		if !owned {
			fetched = append(fetched, local)
		}
	}
	return fetched
}

func (s *Store) upsertLocked(rec Record) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if idx, ok := s.index[rec.RecordID]; ok {
		s.records[idx] = rec
		return
	}
	s.index[rec.RecordID] = len(s.records)
	s.records = append(s.records, rec)
}

func (s *Store) setRecordsLocked(records []Record) {
	s.records = records
	s.reindexLocked()
}

func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.records))
	for i, rec := range s.records {
		s.index[rec.RecordID] = i
	}
}

func cloneRecords(records []Record) []Record {
	if len(records) == 0 {
		return nil
	}
	dup := make([]Record, len(records))
	for i, rec := range records {
		dup[i] = rec.Clone()
	}
	return dup
}
