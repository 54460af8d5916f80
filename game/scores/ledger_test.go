package scores

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/MarshTheBacca/dotto/game/service"
)

func TestLedger_AppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "scores.csv")
	ledger := NewLedger(path)

	records, err := ledger.Load()
	if err != nil || len(records) != 0 {
		t.Fatalf("expected an empty ledger, got %v (%v)", records, err)
	}

	want := []service.ScoreRecord{
		{Name: "Alice", Length: 5, Width: 5, Dots: 3, Turns: 12},
		{Name: "Bob & Carol", Length: 10, Width: 12, Dots: 6, Turns: 41},
	}
	for _, r := range want {
		if err := ledger.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := NewLedger(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Alice,5,5,3,12\nBob & Carol,10,12,6,41\n" {
		t.Errorf("unexpected file contents %q", data)
	}
}

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"written by hand", "Alice, 5, 5, 3, 12\nBob,6,7,2,9", 2, false},
		{"quoted name", "\"Smith, J\",5,5,1,3\n", 1, false},
		{"missing column", "Alice,5,5,3\n", 0, true},
		{"not a number", "Alice,5,five,3,12\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Read(strings.NewReader(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedLedger) {
					t.Fatalf("expected ErrMalformedLedger, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("expected %d records, got %d", tt.want, len(records))
			}
		})
	}
}

func TestWriteRead_QuotedNames(t *testing.T) {
	in := []service.ScoreRecord{{Name: "Smith, J", Length: 5, Width: 6, Dots: 2, Turns: 7}}
	var buf bytes.Buffer
	if err := Write(&buf, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}

func TestLedger_AppendRefusesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := os.WriteFile(path, []byte("garbage\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ledger := NewLedger(path)
	if err := ledger.Append(service.ScoreRecord{Name: "Alice"}); !errors.Is(err, ErrMalformedLedger) {
		t.Fatalf("expected ErrMalformedLedger, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "garbage\n" {
		t.Error("a failed append must leave the file untouched")
	}
}
