package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/five82/readshelf/internal/books"
)

const serviceTimestampLayout = "2006-01-02 15:04:05"

// RecordID is the opaque identifier the service assigns to a library entry.
// Some deployments send it as a JSON number, others as a string.
type RecordID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode record id: %w", err)
		}
		*id = RecordID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decode record id: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

// UserBook mirrors an entry of /api/user-books. The list endpoint omits the
// embedded book; the create endpoint usually includes it.
type UserBook struct {
	ID        RecordID `json:"id"`
	BookID    int64    `json:"bookId"`
	Status    string   `json:"status"`
	Rating    *float64 `json:"rating"`
	UpdatedAt string   `json:"updatedAt"`
	Book      *Book    `json:"book,omitempty"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (u UserBook) ParsedUpdatedAt() time.Time {
	return parseTime(u.UpdatedAt)
}

// UserBookListResponse mirrors GET /api/user-books.
type UserBookListResponse struct {
	Items []UserBook `json:"items"`
}

// Book mirrors /api/books/{id} and the recommendation payloads. Author data
// arrives in several shapes; use Details to get the canonical form.
type Book struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Author          books.Authors `json:"author"`
	Authors         books.Authors `json:"authors"`
	CoverURL        string        `json:"coverUrl"`
	Publisher       string        `json:"publisher"`
	ISBN10          string        `json:"isbn10"`
	ISBN13          string        `json:"isbn13"`
	Pages           int           `json:"pages"`
	PublicationYear int           `json:"publicationYear"`
}

// Details normalizes the book into display data.
func (b Book) Details() books.Details {
	return books.Details{
		Title:           strings.TrimSpace(b.Title),
		Authors:         books.MergeAuthors(b.Author, b.Authors),
		CoverURL:        strings.TrimSpace(b.CoverURL),
		Publisher:       strings.TrimSpace(b.Publisher),
		ISBN10:          strings.TrimSpace(b.ISBN10),
		ISBN13:          strings.TrimSpace(b.ISBN13),
		Pages:           b.Pages,
		PublicationYear: b.PublicationYear,
	}
}

// RecommendationListResponse mirrors GET /api/recommendations.
type RecommendationListResponse struct {
	Items []Book `json:"items"`
}

// NewBook is the book half of an add request.
type NewBook struct {
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	CoverURL        string   `json:"coverUrl,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	ISBN10          string   `json:"isbn10,omitempty"`
	ISBN13          string   `json:"isbn13,omitempty"`
	Pages           int      `json:"pages,omitempty"`
	PublicationYear int      `json:"publicationYear,omitempty"`
}

// AddRequest is the body of POST /api/user-books.
type AddRequest struct {
	Book   NewBook `json:"book"`
	Status string  `json:"status"`
}

// RecordPatch is the partial body of PUT /api/user-books/{id}. Only the
// changed field is set.
type RecordPatch struct {
	Status *string  `json:"status,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
}

// StatusPatch builds a patch that only changes status.
func StatusPatch(status string) RecordPatch {
	return RecordPatch{Status: &status}
}

// RatingPatch builds a patch that only changes rating.
func RatingPatch(rating float64) RecordPatch {
	return RecordPatch{Rating: &rating}
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(serviceTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
