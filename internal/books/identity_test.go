package books

import "testing"

func TestSameWork(t *testing.T) {
	tests := []struct {
		name string
		a, b Identity
		want bool
	}{
		{
			name: "equal ids",
			a:    Identity{ID: 7, Title: "Dune"},
			b:    Identity{ID: 7, Title: "Something else"},
			want: true,
		},
		{
			name: "different ids fall through to title",
			a:    Identity{ID: 7, Title: "Dune"},
			b:    Identity{ID: 8, Title: "dune"},
			want: true,
		},
		{
			name: "equal isbn ignores title and author",
			a:    Identity{ISBN13: "9780307474278", Title: "The Road", Authors: []string{"Cormac McCarthy"}},
			b:    Identity{ISBN13: " 9780307474278 ", Title: "Road, The", Authors: []string{"C. McCarthy"}},
			want: true,
		},
		{
			name: "different isbn, same title, no authors",
			a:    Identity{ISBN13: "9780441013593", Title: "Dune"},
			b:    Identity{ISBN13: "9780441172719", Title: "  DUNE "},
			want: true,
		},
		{
			name: "whitespace isbn is absent",
			a:    Identity{ISBN13: "   ", Title: "Dune", Authors: []string{"Frank Herbert"}},
			b:    Identity{ISBN13: "   ", Title: "Emma", Authors: []string{"Jane Austen"}},
			want: false,
		},
		{
			name: "same title and author ignoring case",
			a:    Identity{Title: "Dune", Authors: []string{"Frank Herbert"}},
			b:    Identity{Title: "dune", Authors: []string{" frank herbert "}},
			want: true,
		},
		{
			name: "same title different author",
			a:    Identity{Title: "Emma", Authors: []string{"Jane Austen"}},
			b:    Identity{Title: "Emma", Authors: []string{"Emma Tennant"}},
			want: false,
		},
		{
			name: "only one side has author",
			a:    Identity{Title: "Dune", Authors: []string{"Frank Herbert"}},
			b:    Identity{Title: "Dune"},
			want: false,
		},
		{
			name: "blank author counts as missing",
			a:    Identity{Title: "Dune", Authors: []string{"  "}},
			b:    Identity{Title: "Dune"},
			want: true,
		},
		{
			name: "empty titles never match",
			a:    Identity{Title: "  "},
			b:    Identity{Title: ""},
			want: false,
		},
		{
			name: "different titles",
			a:    Identity{Title: "Dune"},
			b:    Identity{Title: "Dune Messiah"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameWork(tt.a, tt.b); got != tt.want {
				t.Fatalf("SameWork(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := SameWork(tt.b, tt.a); got != tt.want {
				t.Fatalf("SameWork is not symmetric for %q", tt.name)
			}
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	existing := []Identity{
		{ID: 1, Title: "Emma", Authors: []string{"Jane Austen"}},
		{ISBN13: "9780307474278", Title: "The Road"},
	}

	if !IsDuplicate(Identity{ISBN13: "9780307474278", Title: "Anything"}, existing) {
		t.Fatalf("IsDuplicate = false, want true for shared ISBN")
	}
	if IsDuplicate(Identity{Title: "Persuasion", Authors: []string{"Jane Austen"}}, existing) {
		t.Fatalf("IsDuplicate = true, want false for new title")
	}
	if IsDuplicate(Identity{Title: "Emma"}, nil) {
		t.Fatalf("IsDuplicate against empty set = true, want false")
	}
}

func TestIdentityFirstAuthorSkipsBlanks(t *testing.T) {
	id := Identity{Authors: []string{"", "  ", " Ursula K. Le Guin "}}
	if got := id.FirstAuthor(); got != "Ursula K. Le Guin" {
		t.Fatalf("FirstAuthor = %q, want %q", got, "Ursula K. Le Guin")
	}
}
