package books

import "strings"

// Identity is the subset of book data used to decide whether two records
// denote the same work.
type Identity struct {
	ID      int64 // zero when the book has not been persisted as a canonical book
	ISBN13  string
	Title   string
	Authors []string
}

// FirstAuthor returns the trimmed first author name, or "" when none is known.
func (i Identity) FirstAuthor() string {
	for _, name := range i.Authors {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// IsDuplicate reports whether candidate matches any member of existing.
func IsDuplicate(candidate Identity, existing []Identity) bool {
	for _, other := range existing {
		if SameWork(candidate, other) {
			return true
		}
	}
	return false
}

// SameWork compares two identities in priority order: id, ISBN-13, then
// title with first author. An id or ISBN mismatch is not treated as proof of
// a different work; evaluation falls through to the title rule.
func SameWork(a, b Identity) bool {
	if a.ID != 0 && b.ID != 0 && a.ID == b.ID {
		return true
	}

	isbnA := strings.TrimSpace(a.ISBN13)
	isbnB := strings.TrimSpace(b.ISBN13)
	if isbnA != "" && isbnB != "" && isbnA == isbnB {
		return true
	}

	titleA := normalize(a.Title)
	titleB := normalize(b.Title)
	if titleA == "" || titleB == "" || titleA != titleB {
		return false
	}

	authorA := normalize(a.FirstAuthor())
	authorB := normalize(b.FirstAuthor())
	switch {
	case authorA != "" && authorB != "":
		return authorA == authorB
	case authorA == "" && authorB == "":
		return true
	default:
		// Only one side knows the author; don't guess.
		return false
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
