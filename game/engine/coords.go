package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinates are written column number first, then row letters: "3B" is
// column 3 of row B. Column numbers are 1-based and padded to the width of
// the widest column; row letters are bijective base-26 (A..Z, AA, AB, ...).

// RowLabel returns the letters naming a 0-indexed row
func RowLabel(row int) string {
	var buf []byte
	for n := row + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}
	return string(buf)
}

// ColumnLabel returns the zero-padded 1-based number naming a column
func ColumnLabel(col, width int) string {
	return fmt.Sprintf("%0*d", len(strconv.Itoa(width)), col+1)
}

// FormatCoord renders c for a board of the given width
func FormatCoord(c Coord, width int) string {
	return ColumnLabel(c.Col, width) + RowLabel(c.Row)
}

// ParseCoord reads a coordinate typed by a player. Letters are
// case-insensitive and leading zeros on the column are optional.
func ParseCoord(s string, length, width int) (Coord, error) {
	s = strings.TrimSpace(s)
	split := 0
	for split < len(s) && s[split] >= '0' && s[split] <= '9' {
		split++
	}
	digits, letters := s[:split], strings.ToUpper(s[split:])
	if digits == "" || letters == "" {
		return Coord{}, fmt.Errorf("%w: %q, expected a column number followed by row letters (e.g. 1A)", ErrMalformedCoord, s)
	}

	col, err := strconv.Atoi(digits)
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %q", ErrMalformedCoord, s)
	}

	row := 0
	for i := 0; i < len(letters); i++ {
		ch := letters[i]
		if ch < 'A' || ch > 'Z' {
			return Coord{}, fmt.Errorf("%w: %q", ErrMalformedCoord, s)
		}
		row = row*26 + int(ch-'A') + 1
		if row > length {
			return Coord{}, fmt.Errorf("%w: %s", ErrOutOfBounds, s)
		}
	}

	c := Coord{Row: row - 1, Col: col - 1}
	if c.Row < 0 || c.Row >= length || c.Col < 0 || c.Col >= width {
		return Coord{}, fmt.Errorf("%w: %s", ErrOutOfBounds, s)
	}
	return c, nil
}
