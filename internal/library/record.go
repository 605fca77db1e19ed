package library

import (
	"fmt"
	"time"

	"github.com/five82/readshelf/internal/api"
	"github.com/five82/readshelf/internal/books"
)

// Record is one entry in the user's library.
type Record struct {
	RecordID    string
	BookID      int64 // zero for books not yet persisted as canonical books
	Status      Status
	Rating      *float64 // shown only on the READ shelf; kept when leaving it
	Book        books.Details
	Provisional bool // inserted locally while the add request is in flight
	UpdatedAt   time.Time
}

// Identity returns the identity used for duplicate detection.
func (r Record) Identity() books.Identity {
	return r.Book.Identity(r.BookID)
}

// DisplayRating returns the rating and true only when it should be shown.
func (r Record) DisplayRating() (float64, bool) {
	if r.Status != StatusRead || r.Rating == nil {
		return 0, false
	}
	return *r.Rating, true
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Rating = cloneRating(r.Rating)
	r.Book = r.Book.Clone()
	return r
}

func cloneRating(v *float64) *float64 {
	if v == nil {
		return nil
	}
	dup := *v
	return &dup
}

func sameRating(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// recordFromUserBook converts a transport entry. Book details are taken from
// the embedded book when the service included one.
func recordFromUserBook(item api.UserBook) (Record, error) {
	if item.ID == "" {
		return Record{}, fmt.Errorf("entry for book %d has no id", item.BookID)
	}
	status, err := ParseStatus(item.Status)
	if err != nil {
		return Record{}, fmt.Errorf("entry %s: %w", item.ID, err)
	}
	rec := Record{
		RecordID:  string(item.ID),
		BookID:    item.BookID,
		Status:    status,
		Rating:    cloneRating(item.Rating),
		UpdatedAt: item.ParsedUpdatedAt(),
	}
	if item.Book != nil {
		rec.Book = item.Book.Details()
		if rec.BookID == 0 {
			rec.BookID = item.Book.ID
		}
	}
	return rec, nil
}

// GroupByStatus projects records onto shelves, preserving order within each.
func GroupByStatus(records []Record) map[Status][]Record {
	shelves := make(map[Status][]Record, len(Statuses))
	for _, rec := range records {
		shelves[rec.Status] = append(shelves[rec.Status], rec)
	}
	return shelves
}

// RatedReads returns the READ records that carry a rating.
func RatedReads(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		if _, ok := rec.DisplayRating(); ok {
			out = append(out, rec)
		}
	}
	return out
}
