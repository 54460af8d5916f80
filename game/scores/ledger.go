// Package scores keeps the table of finished games. Rows are stored as
// name,length,width,dots,turns with no header.
package scores

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/MarshTheBacca/dotto/game/service"
)

var ErrMalformedLedger = errors.New("malformed score ledger")

const columns = 5

// Ledger is a CSV backed score table
type Ledger struct {
	path string
	mu   sync.Mutex
}

// NewLedger creates a ledger stored at path. The file is created on the
// first Append.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Load reads the whole table. A missing file is an empty table.
func (l *Ledger) Load() ([]service.ScoreRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Append adds record to the end of the table and writes it back
func (l *Ledger) Append(record service.ScoreRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return err
	}
	records = append(records, record)

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create score directory: %w", err)
	}

	tmp := l.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to write scores: %w", err)
	}
	if err := Write(file, records); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write scores: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write scores: %w", err)
	}
	return nil
}

func (l *Ledger) load() ([]service.ScoreRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}
	defer file.Close()
	return Read(file)
}

// Read parses a score table
func Read(r io.Reader) ([]service.ScoreRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = columns
	reader.TrimLeadingSpace = true

	var records []service.ScoreRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLedger, err)
		}

		var nums [columns - 1]int
		for i, field := range row[1:] {
			n, err := strconv.Atoi(field)
			if err != nil {
				line, _ := reader.FieldPos(0)
				return nil, fmt.Errorf("%w: line %d: %q is not a number", ErrMalformedLedger, line, field)
			}
			nums[i] = n
		}
		records = append(records, service.ScoreRecord{
			Name:   row[0],
			Length: nums[0],
			Width:  nums[1],
			Dots:   nums[2],
			Turns:  nums[3],
		})
	}
}

// Write serialises a score table
func Write(w io.Writer, records []service.ScoreRecord) error {
	writer := csv.NewWriter(w)
	for _, r := range records {
		row := []string{
			r.Name,
			strconv.Itoa(r.Length),
			strconv.Itoa(r.Width),
			strconv.Itoa(r.Dots),
			strconv.Itoa(r.Turns),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write scores: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write scores: %w", err)
	}
	return nil
}
