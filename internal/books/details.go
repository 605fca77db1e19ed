package books

import "strings"

// Details is the denormalized display data for a book.
type Details struct {
	Title           string
	Authors         []string
	CoverURL        string
	Publisher       string
	ISBN10          string
	ISBN13          string
	Pages           int
	PublicationYear int
}

// Identity returns the identity fields of d under the given canonical id.
func (d Details) Identity(id int64) Identity {
	return Identity{
		ID:      id,
		ISBN13:  strings.TrimSpace(d.ISBN13),
		Title:   d.Title,
		Authors: d.Authors,
	}
}

// AuthorLine joins author names for display.
func (d Details) AuthorLine() string {
	if len(d.Authors) == 0 {
		return PlaceholderAuthor
	}
	return strings.Join(d.Authors, ", ")
}

// Clone returns a copy that does not share the author slice.
func (d Details) Clone() Details {
	if d.Authors != nil {
		d.Authors = append([]string(nil), d.Authors...)
	}
	return d
}
