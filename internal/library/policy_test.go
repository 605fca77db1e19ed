package library

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLegalTargets(t *testing.T) {
	tests := []struct {
		from Status
		want []Status
	}{
		{StatusToRead, []Status{StatusRead, StatusAbandoned}},
		{StatusRead, nil},
		{StatusAbandoned, []Status{StatusToRead, StatusRead}},
		{"UNKNOWN", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, LegalTargets(tt.from)); diff != "" {
			t.Errorf("LegalTargets(%s) mismatch (-want +got):\n%s", tt.from, diff)
		}
	}
}

func TestLegalTargetsReturnsFreshSlice(t *testing.T) {
	got := LegalTargets(StatusToRead)
	got[0] = StatusAbandoned
	if again := LegalTargets(StatusToRead); again[0] != StatusRead {
		t.Fatalf("LegalTargets shares its backing array: %v", again)
	}
}

func TestCanTransition(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			want := false
			for _, target := range LegalTargets(from) {
				if target == to {
					want = true
				}
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
	if CanTransition(StatusToRead, StatusToRead) {
		t.Errorf("moving to the same shelf should not be offered")
	}
}

func TestFinishedBookOffersNoMoves(t *testing.T) {
	svc := &fakeService{}
	store := seededStore(Record{RecordID: "1", Status: StatusToRead})
	m := NewMutator(store, svc, MutatorOptions{})

	if err := m.MoveStatus(context.Background(), "1", StatusRead); err != nil {
		t.Fatalf("MoveStatus returned error: %v", err)
	}
	rec, _ := store.Get("1")
	if targets := LegalTargets(rec.Status); len(targets) != 0 {
		t.Fatalf("LegalTargets(%s) = %v, want none", rec.Status, targets)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"TO_READ", StatusToRead},
		{"to-read", StatusToRead},
		{" to read ", StatusToRead},
		{"read", StatusRead},
		{"Abandoned", StatusAbandoned},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if err != nil {
			t.Fatalf("ParseStatus(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "reading", "DONE"} {
		if _, err := ParseStatus(bad); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q) error = %v, want ErrInvalidStatus", bad, err)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusToRead.Label(); got != "To Read" {
		t.Errorf("Label = %q, want To Read", got)
	}
	if got := Status("OTHER").Label(); got != "OTHER" {
		t.Errorf("Label = %q, want OTHER", got)
	}
}

func TestValidRating(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1, 2.5, 4, 5} {
		if !ValidRating(v) {
			t.Errorf("ValidRating(%v) = false, want true", v)
		}
	}
	for _, v := range []float64{-1, 5.5, 1.25, 3.7} {
		if ValidRating(v) {
			t.Errorf("ValidRating(%v) = true, want false", v)
		}
	}
}

func TestDisplayRatingOnlyOnRead(t *testing.T) {
	rated := Record{Status: StatusRead, Rating: ratingPtr(4)}
	if v, ok := rated.DisplayRating(); !ok || v != 4 {
		t.Fatalf("DisplayRating = %v, %v, want 4, true", v, ok)
	}
	rated.Status = StatusAbandoned
	if _, ok := rated.DisplayRating(); ok {
		t.Fatalf("DisplayRating shown on ABANDONED")
	}
	if _, ok := (Record{Status: StatusRead}).DisplayRating(); ok {
		t.Fatalf("DisplayRating shown without a rating")
	}
}
