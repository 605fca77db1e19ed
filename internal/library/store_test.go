package library

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/readshelf/internal/api"
	"github.com/five82/readshelf/internal/books"
)

func newLoadedStore(t *testing.T, svc *fakeService) *Store {
	t.Helper()
	s := NewStore(nil)
	if _, err := s.Load(context.Background(), svc); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return s
}

func TestStore_LoadMergesBookDetails(t *testing.T) {
	svc := &fakeService{
		library: []api.UserBook{
			{ID: "1", BookID: 10, Status: "TO_READ"},
			{ID: "2", BookID: 11, Status: "read", Rating: ratingPtr(4)},
			{ID: "3", BookID: 10, Status: "ABANDONED"},
		},
		books: map[int64]api.Book{
			10: {ID: 10, Title: "Dune", Author: books.Authors{"Frank Herbert"}, ISBN13: "9780441013593"},
			11: {ID: 11, Title: "Emma", Authors: books.Authors{"Jane Austen"}},
		},
	}

	before := time.Now()
	s := NewStore(nil)
	records, err := s.Load(context.Background(), svc)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Load returned %d records, want 3", len(records))
	}

	want := []Record{
		{RecordID: "1", BookID: 10, Status: StatusToRead, Book: books.Details{Title: "Dune", Authors: []string{"Frank Herbert"}, ISBN13: "9780441013593"}},
		{RecordID: "2", BookID: 11, Status: StatusRead, Rating: ratingPtr(4), Book: books.Details{Title: "Emma", Authors: []string{"Jane Austen"}}},
		{RecordID: "3", BookID: 10, Status: StatusAbandoned, Book: books.Details{Title: "Dune", Authors: []string{"Frank Herbert"}, ISBN13: "9780441013593"}},
	}
	if diff := cmp.Diff(want, s.Records()); diff != "" {
		t.Fatalf("Records mismatch (-want +got):\n%s", diff)
	}

	snap := s.Snapshot()
	if !snap.Loaded || snap.LastLoaded.Before(before) || snap.LastError != nil {
		t.Fatalf("snapshot metadata = %+v, want loaded without error", snap)
	}
}

func TestStore_LoadSkipsBadEntriesAndMissingDetails(t *testing.T) {
	svc := &fakeService{
		library: []api.UserBook{
			{ID: "1", BookID: 10, Status: "TO_READ"},
			{ID: "1", BookID: 12, Status: "READ"},
			{ID: "", BookID: 13, Status: "READ"},
			{ID: "4", BookID: 14, Status: "SHELVED"},
			{ID: "5", BookID: 15, Status: "READ"},
		},
		books:   map[int64]api.Book{10: {ID: 10, Title: "Dune"}},
		bookErr: map[int64]error{15: errUnavailable},
	}

	s := newLoadedStore(t, svc)
	records := s.Records()
	if len(records) != 2 {
		t.Fatalf("Records = %#v, want ids 1 and 5", records)
	}
	if records[0].RecordID != "1" || records[0].Book.Title != "Dune" {
		t.Fatalf("first record = %#v, want id 1 with Dune details", records[0])
	}
	if records[1].RecordID != "5" || records[1].Book.Title != "" {
		t.Fatalf("second record = %#v, want id 5 without details", records[1])
	}
}

func TestStore_LoadFailureKeepsPreviousRecords(t *testing.T) {
	svc := &fakeService{
		library: []api.UserBook{{ID: "1", Status: "TO_READ"}},
	}
	s := newLoadedStore(t, svc)

	svc.libraryErr = errUnavailable
	_, err := s.Load(context.Background(), svc)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Load error = %v, want *FetchError", err)
	}
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("Load error does not wrap cause: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d after failed load, want 1", s.Len())
	}

	snap := s.Snapshot()
	if snap.LastError == nil || snap.ConsecutiveFailures != 1 {
		t.Fatalf("snapshot = %+v, want one recorded failure", snap)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(fetchErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	svc := &fakeService{libraryErr: errUnavailable}
	s := NewStore(nil)

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}
	_, _ = s.Load(context.Background(), svc)
	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}
	_, _ = s.Load(context.Background(), svc)
	if !s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	svc.libraryErr = nil
	_, _ = s.Load(context.Background(), svc)
	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("ConsecutiveFailures = %d after success, want 0", snap.ConsecutiveFailures)
	}
}

func TestStore_LoadCancelledReturnsFetchError(t *testing.T) {
	svc := &fakeService{
		library: []api.UserBook{{ID: "1", BookID: 10, Status: "TO_READ"}},
		books:   map[int64]api.Book{10: {ID: 10, Title: "Dune"}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.bookErr = map[int64]error{10: context.Canceled}

	s := NewStore(nil)
	_, err := s.Load(ctx, svc)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Load error = %v, want *FetchError", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestStore_UpsertLocalInsertsAndReplaces(t *testing.T) {
	s := NewStore(nil)
	if err := s.UpsertLocal(Record{RecordID: "a", Status: StatusToRead}); err != nil {
		t.Fatalf("UpsertLocal returned error: %v", err)
	}
	if err := s.UpsertLocal(Record{RecordID: "b", Status: StatusToRead}); err != nil {
		t.Fatalf("UpsertLocal returned error: %v", err)
	}
	if err := s.UpsertLocal(Record{RecordID: "a", Status: StatusRead}); err != nil {
		t.Fatalf("UpsertLocal returned error: %v", err)
	}

	records := s.Records()
	if len(records) != 2 || records[0].RecordID != "a" || records[0].Status != StatusRead {
		t.Fatalf("Records = %#v, want a(READ), b", records)
	}
	if err := s.UpsertLocal(Record{}); err == nil {
		t.Fatalf("UpsertLocal without id returned nil error")
	}
}

func TestStore_RecordsAreCopies(t *testing.T) {
	s := NewStore(nil)
	_ = s.UpsertLocal(Record{RecordID: "a", Rating: ratingPtr(3), Book: books.Details{Authors: []string{"X"}}})

	got := s.Records()
	*got[0].Rating = 1
	got[0].Book.Authors[0] = "Y"

	again, _ := s.Get("a")
	if *again.Rating != 3 || again.Book.Authors[0] != "X" {
		t.Fatalf("store record mutated through copy: %#v", again)
	}
}

func TestStore_FindAndRemoveByIdentity(t *testing.T) {
	s := NewStore(nil)
	_ = s.UpsertLocal(Record{RecordID: "a", Book: books.Details{Title: "Dune", ISBN13: "9780441013593"}})
	_ = s.UpsertLocal(Record{RecordID: "b", Book: books.Details{Title: "Emma"}})
	_ = s.UpsertLocal(Record{RecordID: "c", Book: books.Details{Title: "Kindred"}})

	rec, ok := s.FindByIdentity(books.Identity{ISBN13: "9780441013593"})
	if !ok || rec.RecordID != "a" {
		t.Fatalf("FindByIdentity = %#v, %v, want record a", rec, ok)
	}

	if n := s.RemoveLocalByIdentity(books.Identity{Title: " emma "}); n != 1 {
		t.Fatalf("RemoveLocalByIdentity removed %d, want 1", n)
	}
	if _, ok := s.Get("b"); ok {
		t.Fatalf("record b still present after removal")
	}
	if c, ok := s.Get("c"); !ok || c.Book.Title != "Kindred" {
		t.Fatalf("index not rebuilt after removal: %#v, %v", c, ok)
	}
	if n := s.RemoveLocalByIdentity(books.Identity{Title: "Nope"}); n != 0 {
		t.Fatalf("RemoveLocalByIdentity removed %d, want 0", n)
	}
}

func TestStore_ReplaceLocalKeepsPosition(t *testing.T) {
	s := NewStore(nil)
	_ = s.UpsertLocal(Record{RecordID: "a"})
	_ = s.UpsertLocal(Record{RecordID: "pending-x", Provisional: true})
	_ = s.UpsertLocal(Record{RecordID: "c"})

	s.replaceLocal("pending-x", Record{RecordID: "b"})

	var ids []string
	for _, rec := range s.Records() {
		ids = append(ids, rec.RecordID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Get("pending-x"); ok {
		t.Fatalf("provisional id still indexed")
	}
}

func TestSnapshot_ShelfProjection(t *testing.T) {
	s := NewStore(nil)
	_ = s.UpsertLocal(Record{RecordID: "a", Status: StatusToRead})
	_ = s.UpsertLocal(Record{RecordID: "b", Status: StatusRead, Rating: ratingPtr(5)})
	_ = s.UpsertLocal(Record{RecordID: "c", Status: StatusToRead, Rating: ratingPtr(4)})

	snap := s.Snapshot()
	if got := snap.Shelf(StatusToRead); len(got) != 2 || got[0].RecordID != "a" || got[1].RecordID != "c" {
		t.Fatalf("TO_READ shelf = %#v", got)
	}
	if got := snap.Shelf(StatusAbandoned); len(got) != 0 {
		t.Fatalf("ABANDONED shelf = %#v, want empty", got)
	}
	rated := RatedReads(snap.Records)
	if len(rated) != 1 || rated[0].RecordID != "b" {
		t.Fatalf("RatedReads = %#v, want only b", rated)
	}
}
