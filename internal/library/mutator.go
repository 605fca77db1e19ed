package library

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/readshelf/internal/api"
	"github.com/five82/readshelf/internal/books"
)

const provisionalPrefix = "pending-"

// Writer is the write half of the library service.
type Writer interface {
	AddBook(ctx context.Context, req api.AddRequest) (api.UserBook, error)
	UpdateRecord(ctx context.Context, id api.RecordID, patch api.RecordPatch) (*api.UserBook, error)
}

// MutatorOptions configure a Mutator.
type MutatorOptions struct {
	// OptimisticAdd inserts a provisional record before the add request
	// completes and removes it again if the request fails.
	OptimisticAdd bool
	// Consumed is called with the identity of every successfully added book,
	// so the list it came from can drop it.
	Consumed func(books.Identity)
	Logger   *zap.Logger
}

// Mutator applies library changes locally first and reconciles them with
// the service afterwards.
type Mutator struct {
	store  *Store
	svc    Writer
	opts   MutatorOptions
	logger *zap.Logger

	mu       sync.Mutex
	updating map[string]struct{}
	adding   map[string]books.Identity
}

// NewMutator returns a Mutator over store that writes through svc.
func NewMutator(store *Store, svc Writer, opts MutatorOptions) *Mutator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mutator{
		store:    store,
		svc:      svc,
		opts:     opts,
		logger:   logger,
		updating: make(map[string]struct{}),
		adding:   make(map[string]books.Identity),
	}
}

// Draft describes a book the user wants to add.
type Draft struct {
	BookID int64
	Book   books.Details
	Status Status // empty means TO_READ
}

// Identity returns the identity of the drafted book.
func (d Draft) Identity() books.Identity {
	return d.Book.Identity(d.BookID)
}

// AddResult reports the outcome of Add. Duplicate is set, with a zero
// Record, when the book was already in the library and nothing was sent.
type AddResult struct {
	Record    Record
	Duplicate bool
}

// Add adds the drafted book unless the library already holds the same work.
func (m *Mutator) Add(ctx context.Context, draft Draft) (AddResult, error) {
	status := draft.Status
	if status == "" {
		status = StatusToRead
	}
	if !status.Valid() {
		return AddResult{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	identity := draft.Identity()

	token, ok := m.beginAdd(identity)
	if !ok {
		m.logger.Debug("add skipped, already in library", zap.String("title", draft.Book.Title))
		return AddResult{Duplicate: true}, nil
	}
	defer m.endAdd(token)

	provisionalID := ""
	if m.opts.OptimisticAdd {
		provisionalID = provisionalPrefix + token
		m.store.put(Record{
			RecordID:    provisionalID,
			BookID:      draft.BookID,
			Status:      status,
			Book:        draft.Book,
			Provisional: true,
		})
	}

	created, err := m.svc.AddBook(ctx, buildAddRequest(draft, status))
	var rec Record
	if err == nil {
		rec, err = m.recordFromCreated(created, draft, status)
	}
	if err != nil {
		if provisionalID != "" {
			m.store.removeLocal(provisionalID)
		}
		m.logger.Warn("add to library failed", zap.String("title", draft.Book.Title), zap.Error(err))
		return AddResult{}, &MutationError{Op: OpAdd, Err: err}
	}

	if provisionalID != "" {
		m.store.replaceLocal(provisionalID, rec)
	} else {
		m.store.put(rec)
	}

	if m.opts.Consumed != nil {
		m.opts.Consumed(identity)
	}
	m.logger.Info("book added", zap.String("record_id", rec.RecordID), zap.String("status", string(rec.Status)))
	return AddResult{Record: rec.Clone()}, nil
}

// beginAdd checks for duplicates against both the store and adds still in
// flight, then registers identity as in flight.
func (m *Mutator) beginAdd(identity books.Identity) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := make([]books.Identity, 0, len(m.adding))
	for _, id := range m.adding {
		pending = append(pending, id)
	}
	if books.IsDuplicate(identity, pending) || books.IsDuplicate(identity, m.store.Identities()) {
		return "", false
	}
	token := uuid.NewString()
	m.adding[token] = identity
	if m.opts.OptimisticAdd {
		m.updating[provisionalPrefix+token] = struct{}{}
	}
	return token, true
}

func (m *Mutator) endAdd(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.adding, token)
	delete(m.updating, provisionalPrefix+token)
}

// recordFromCreated converts the service's answer to an add. The book is
// already stored remotely, so a response the client cannot fully read falls
// back to the draft rather than failing the add.
func (m *Mutator) recordFromCreated(created api.UserBook, draft Draft, status Status) (Record, error) {
	rec, err := recordFromUserBook(created)
	if err != nil {
		if created.ID == "" {
			return Record{}, err
		}
		m.logger.Warn("add response not understood, using draft values",
			zap.String("record_id", string(created.ID)),
			zap.Error(err))
		rec = Record{
			RecordID:  string(created.ID),
			BookID:    created.BookID,
			Status:    status,
			Rating:    cloneRating(created.Rating),
			UpdatedAt: created.ParsedUpdatedAt(),
		}
	}
	if rec.BookID == 0 {
		rec.BookID = draft.BookID
	}
	if created.Book == nil {
		rec.Book = draft.Book.Clone()
	}
	return rec, nil
}

func buildAddRequest(draft Draft, status Status) api.AddRequest {
	b := draft.Book
	return api.AddRequest{
		Book: api.NewBook{
			Title:           strings.TrimSpace(b.Title),
			Authors:         books.WithPlaceholder(b.Authors),
			CoverURL:        b.CoverURL,
			Publisher:       b.Publisher,
			ISBN10:          strings.TrimSpace(b.ISBN10),
			ISBN13:          strings.TrimSpace(b.ISBN13),
			Pages:           b.Pages,
			PublicationYear: b.PublicationYear,
		},
		Status: string(status),
	}
}

// Mutation is an optimistic change that has been applied locally and is
// waiting for Commit to send it.
type Mutation struct {
	m        *Mutator
	op       Op
	recordID string

	prevStatus, nextStatus Status
	prevRating, nextRating *float64

	committed atomic.Bool
}

// RecordID returns the id of the record being changed.
func (mu *Mutation) RecordID() string {
	return mu.recordID
}

// Op returns the field the mutation changes.
func (mu *Mutation) Op() Op {
	return mu.op
}

// StageStatus moves the record to status locally and returns the pending
// mutation. The record is marked as updating until Commit returns.
func (m *Mutator) StageStatus(recordID string, status Status) (*Mutation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := m.acquire(recordID); err != nil {
		return nil, err
	}
	mu := &Mutation{m: m, op: OpStatus, recordID: recordID, nextStatus: status}
	err := m.store.stage(recordID, func(r *Record) {
		mu.prevStatus = r.Status
		r.Status = status
	})
	if err != nil {
		m.release(recordID)
		return nil, err
	}
	return mu, nil
}

// StageRating sets the record's rating locally and returns the pending
// mutation. Ratings may be set on any shelf; they are only shown on READ.
func (m *Mutator) StageRating(recordID string, rating float64) (*Mutation, error) {
	if !ValidRating(rating) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRating, rating)
	}
	if err := m.acquire(recordID); err != nil {
		return nil, err
	}
	next := rating
	mu := &Mutation{m: m, op: OpRating, recordID: recordID, nextRating: &next}
	err := m.store.stage(recordID, func(r *Record) {
		mu.prevRating = cloneRating(r.Rating)
		r.Rating = cloneRating(&next)
	})
	if err != nil {
		m.release(recordID)
		return nil, err
	}
	return mu, nil
}

// Commit sends the change to the service. On failure only the touched field
// is restored, and only if it still holds the value this mutation wrote.
func (mu *Mutation) Commit(ctx context.Context) error {
	if !mu.committed.CompareAndSwap(false, true) {
		return ErrAlreadyCommitted
	}
	m := mu.m
	defer m.release(mu.recordID)
	defer m.store.settle(mu.recordID)

	var patch api.RecordPatch
	switch mu.op {
	case OpStatus:
		patch = api.StatusPatch(string(mu.nextStatus))
	case OpRating:
		patch = api.RatingPatch(*mu.nextRating)
	}

	updated, err := m.svc.UpdateRecord(ctx, api.RecordID(mu.recordID), patch)
	if err != nil {
		rolledBack := mu.rollback()
		m.logger.Warn("update failed",
			zap.String("record_id", mu.recordID),
			zap.String("op", string(mu.op)),
			zap.Bool("rolled_back", rolledBack),
			zap.Error(err))
		return &MutationError{Op: mu.op, RecordID: mu.recordID, RolledBack: rolledBack, Err: err}
	}

	if updated != nil && (updated.ID == "" || string(updated.ID) == mu.recordID) {
		mu.confirm(*updated)
	}
	m.logger.Debug("update confirmed", zap.String("record_id", mu.recordID), zap.String("op", string(mu.op)))
	return nil
}

func (mu *Mutation) rollback() bool {
	restored := false
	_ = mu.m.store.modify(mu.recordID, func(r *Record) {
		switch mu.op {
		case OpStatus:
			if r.Status == mu.nextStatus {
				r.Status = mu.prevStatus
				restored = true
			}
		case OpRating:
			if sameRating(r.Rating, mu.nextRating) {
				r.Rating = cloneRating(mu.prevRating)
				restored = true
			}
		}
	})
	return restored
}

// confirm adopts the service's value for the touched field.
func (mu *Mutation) confirm(updated api.UserBook) {
	_ = mu.m.store.modify(mu.recordID, func(r *Record) {
		switch mu.op {
		case OpStatus:
			if status, err := ParseStatus(updated.Status); err == nil {
				r.Status = status
			}
		case OpRating:
			if updated.Rating != nil {
				r.Rating = cloneRating(updated.Rating)
			}
		}
		if ts := updated.ParsedUpdatedAt(); !ts.IsZero() {
			r.UpdatedAt = ts
		}
	})
}

// MoveStatus stages and commits a status change.
func (m *Mutator) MoveStatus(ctx context.Context, recordID string, status Status) error {
	mu, err := m.StageStatus(recordID, status)
	if err != nil {
		return err
	}
	return mu.Commit(ctx)
}

// Rate stages and commits a rating change.
func (m *Mutator) Rate(ctx context.Context, recordID string, rating float64) error {
	mu, err := m.StageRating(recordID, rating)
	if err != nil {
		return err
	}
	return mu.Commit(ctx)
}

// Updating reports whether recordID has a mutation in flight.
func (m *Mutator) Updating(recordID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.updating[recordID]
	return ok
}

// UpdatingIDs returns the ids of records with mutations in flight, sorted.
func (m *Mutator) UpdatingIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.updating))
	for id := range m.updating {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InFlight returns the number of adds and updates not yet resolved.
func (m *Mutator) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.adding)
	for id := range m.updating {
		if !strings.HasPrefix(id, provisionalPrefix) {
			n++
		}
	}
	return n
}

func (m *Mutator) acquire(recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.updating[recordID]; busy {
		return fmt.Errorf("%w: %s", ErrRecordBusy, recordID)
	}
	m.updating[recordID] = struct{}{}
	return nil
}

func (m *Mutator) release(recordID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.updating, recordID)
}
