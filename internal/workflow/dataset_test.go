package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const accountsCSV = `account_id,from_account,to_account,amount
row-1,ACC-100,ACC-200,50.00
row-2,ACC-101,ACC-201,75.25
row-3,ACC-102,ACC-202,10.99
`

func TestParseCSV(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(accountsCSV))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	if ds.Len() != 3 {
		t.Fatalf("Len = %d, want 3", ds.Len())
	}

	wantCols := []string{"account_id", "from_account", "to_account", "amount"}
	cols := ds.Columns()
	if len(cols) != len(wantCols) {
		t.Fatalf("columns = %v", cols)
	}
	for i := range wantCols {
		if cols[i] != wantCols[i] {
			t.Errorf("columns[%d] = %q, want %q", i, cols[i], wantCols[i])
		}
	}

	// First column is the row key; file order is preserved.
	rows := ds.Rows()
	for i, wantKey := range []string{"row-1", "row-2", "row-3"} {
		if rows[i].Key != wantKey {
			t.Errorf("rows[%d].Key = %q, want %q", i, rows[i].Key, wantKey)
		}
	}

	row, ok := ds.Get("row-2")
	if !ok {
		t.Fatal("Get(row-2) not found")
	}
	if v := row["amount"]; v == nil || *v != "75.25" {
		t.Errorf("amount = %v", v)
	}
	// The key column is itself addressable as a parameter.
	if v := row["account_id"]; v == nil || *v != "row-2" {
		t.Errorf("account_id = %v", v)
	}

	if _, ok := ds.Get("row-9"); ok {
		t.Error("Get(row-9) should not be found")
	}
}

func TestParseCSV_SubstitutionRoundTrip(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(accountsCSV))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	row, _ := ds.Get("row-1")
	got := SubstituteParams("move ${data.amount} from ${data.from_account}", row)
	want := "move 50.00 from ACC-100"
	if got != want {
		t.Errorf("substitution = %q, want %q", got, want)
	}
}

func TestParseCSV_Malformed(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Error("empty input should fail (no header)")
	}

	// A row with the wrong column count is a parse error.
	bad := "a,b\n1,2,3\n"
	if _, err := ParseCSV(strings.NewReader(bad)); err == nil {
		t.Error("ragged row should fail")
	}
}

func TestLoadCSV_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.csv")
	if err := os.WriteFile(path, []byte(accountsCSV), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ds, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("Len = %d, want 3", ds.Len())
	}

	if _, err := LoadCSV(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("missing file should fail")
	}
}
