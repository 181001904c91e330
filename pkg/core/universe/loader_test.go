package universe

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTemp(t, "universe.csv", "Name,Ticker,Sector\nApple,AAPL,Tech\nMicrosoft,msft,Tech\nApple Again,AAPL,Tech\n,,\n")

	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Uppercased, deduplicated, blanks dropped, order preserved.
	want := []string{"AAPL", "MSFT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLoadCSVHeaderCaseInsensitive(t *testing.T) {
	path := writeTemp(t, "universe.csv", "ticker\nIBM\n")
	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "IBM" {
		t.Errorf("expected [IBM], got %v", got)
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	path := writeTemp(t, "universe.csv", "Name,Sector\nApple,Tech\n")
	if _, err := LoadCSV(path); err == nil {
		t.Error("expected error for missing Ticker column")
	}
}

func TestLoadCSVSkipsMalformedRows(t *testing.T) {
	// The quoted-but-unterminated row is malformed; the loader logs and moves
	// on rather than failing the whole universe.
	path := writeTemp(t, "universe.csv", "Ticker\nAAPL\n\"BAD\nMSFT\n")
	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 || got[0] != "AAPL" {
		t.Errorf("expected at least AAPL, got %v", got)
	}
}

func TestLoadDispatchUnsupported(t *testing.T) {
	if _, err := Load("universe.txt"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
