package books

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PlaceholderAuthor is sent when a book is added without any known author.
const PlaceholderAuthor = "Unknown Author"

// Authors is the canonical author list. It decodes from every shape the
// service has been seen to send: a single string, an array of strings, or an
// array of {"name": ...} objects.
type Authors []string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Authors) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}

	switch trimmed[0] {
	case '"':
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return fmt.Errorf("decode author: %w", err)
		}
		*a = clean([]string{single})
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("decode authors: %w", err)
		}
		names := make([]string, 0, len(raw))
		for _, elem := range raw {
			name, err := decodeAuthor(elem)
			if err != nil {
				return err
			}
			names = append(names, name)
		}
		*a = clean(names)
		return nil
	case '{':
		name, err := decodeAuthor(trimmed)
		if err != nil {
			return err
		}
		*a = clean([]string{name})
		return nil
	default:
		return fmt.Errorf("decode authors: unsupported value %s", string(trimmed))
	}
}

func decodeAuthor(elem json.RawMessage) (string, error) {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 || bytes.Equal(elem, []byte("null")) {
		return "", nil
	}
	if elem[0] == '"' {
		var name string
		if err := json.Unmarshal(elem, &name); err != nil {
			return "", fmt.Errorf("decode author: %w", err)
		}
		return name, nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(elem, &obj); err != nil {
		return "", fmt.Errorf("decode author: %w", err)
	}
	return obj.Name, nil
}

// MergeAuthors combines the legacy single "author" field with the "authors"
// list, dropping blanks and case-insensitive repeats while keeping order.
func MergeAuthors(author Authors, authors Authors) []string {
	merged := make([]string, 0, len(author)+len(authors))
	seen := make(map[string]struct{}, cap(merged))
	for _, list := range [][]string{authors, author} {
		for _, name := range list {
			key := normalize(name)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, strings.TrimSpace(name))
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// WithPlaceholder returns names, or a single PlaceholderAuthor when empty.
func WithPlaceholder(names []string) []string {
	if cleaned := clean(names); len(cleaned) > 0 {
		return cleaned
	}
	return []string{PlaceholderAuthor}
}

func clean(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
