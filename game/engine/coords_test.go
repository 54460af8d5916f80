package engine

import (
	"errors"
	"testing"
)

func TestParseCoord(t *testing.T) {
	tests := []struct {
		input         string
		length, width int
		want          Coord
		wantErr       error
	}{
		{"1A", 5, 5, Coord{0, 0}, nil},
		{"3B", 5, 5, Coord{1, 2}, nil},
		{"3b", 5, 5, Coord{1, 2}, nil},
		{" 5E ", 5, 5, Coord{4, 4}, nil},
		{"03B", 5, 12, Coord{1, 2}, nil},
		{"3B", 5, 12, Coord{1, 2}, nil},
		{"12O", 15, 12, Coord{14, 11}, nil},
		{"0A", 5, 5, Coord{}, ErrOutOfBounds},
		{"6A", 5, 5, Coord{}, ErrOutOfBounds},
		{"1F", 5, 5, Coord{}, ErrOutOfBounds},
		{"1AA", 5, 5, Coord{}, ErrOutOfBounds},
		{"A1", 5, 5, Coord{}, ErrMalformedCoord},
		{"", 5, 5, Coord{}, ErrMalformedCoord},
		{"1", 5, 5, Coord{}, ErrMalformedCoord},
		{"1A1", 5, 5, Coord{}, ErrMalformedCoord},
		{"1-A", 5, 5, Coord{}, ErrMalformedCoord},
		{"99999999999999999999A", 5, 5, Coord{}, ErrMalformedCoord},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseCoord(test.input, test.length, test.width)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("expected %v, got %v (coord %v)", test.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("expected %v, got %v", test.want, got)
			}
		})
	}
}

func TestFormatCoord(t *testing.T) {
	tests := []struct {
		c     Coord
		width int
		want  string
	}{
		{Coord{0, 0}, 5, "1A"},
		{Coord{1, 2}, 5, "3B"},
		{Coord{1, 2}, 12, "03B"},
		{Coord{14, 11}, 12, "12O"},
	}
	for _, test := range tests {
		if got := FormatCoord(test.c, test.width); got != test.want {
			t.Errorf("FormatCoord(%v, %d): expected %q, got %q", test.c, test.width, test.want, got)
		}
	}
}

func TestRowLabel(t *testing.T) {
	tests := map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"}
	for row, want := range tests {
		if got := RowLabel(row); got != want {
			t.Errorf("RowLabel(%d): expected %q, got %q", row, want, got)
		}
	}
}

func TestCoordRoundTrip(t *testing.T) {
	for _, width := range []int{5, 9, 10, 15} {
		for r := 0; r < MaxBoardSize; r++ {
			for c := 0; c < width; c++ {
				want := Coord{r, c}
				got, err := ParseCoord(FormatCoord(want, width), MaxBoardSize, width)
				if err != nil || got != want {
					t.Fatalf("width %d: %v -> %q -> %v (%v)", width, want, FormatCoord(want, width), got, err)
				}
			}
		}
	}
}
