package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MarshTheBacca/dotto/game/engine"
)

func TestAnalyze(t *testing.T) {
	s := engine.DefaultSettings()
	a := analyze("Classic", s, 10)

	if a.Samples != 10 {
		t.Errorf("Expected 10 samples, got %d", a.Samples)
	}
	if a.Barriers <= 0 {
		t.Errorf("Expected some barriers on average, got %.1f", a.Barriers)
	}
	cells := float64(s.Length * s.Width)
	if a.Barriers+a.Open > cells {
		t.Errorf("Barriers %.1f and open cells %.1f exceed the board", a.Barriers, a.Open)
	}
	if a.Stuck > a.Boxed {
		t.Errorf("A stuck player implies a boxed dot, got %d stuck and %d boxed", a.Stuck, a.Boxed)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	s := engine.DefaultSettings()
	if a, b := analyze("x", s, 5), analyze("x", s, 5); a != b {
		t.Errorf("Expected the same seeds to give the same analysis:\n%+v\n%+v", a, b)
	}
}

func TestPrintAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		want    string
	}{
		{"with samples", 4, "Sample Boards: 4"},
		{"no samples", 0, "No sample boards generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printAnalysis(&buf, analyze("Classic", engine.DefaultSettings(), tt.samples))
			out := buf.String()
			if !strings.Contains(out, "Board: 5 x 5 (25 cells)") {
				t.Errorf("Expected the board size in:\n%s", out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("Expected %q in:\n%s", tt.want, out)
			}
		})
	}
}

func TestPresetFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.json", "notes.txt", "c.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := presetFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.json", "b.yaml", "c.yml"}
	if len(files) != len(want) {
		t.Fatalf("Expected %v, got %v", want, files)
	}
	for i, f := range files {
		if filepath.Base(f) != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, filepath.Base(f), want[i])
		}
	}
}
