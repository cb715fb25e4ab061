package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"dompet/internal/core"
)

func sample(t *testing.T) []core.Transaction {
	t.Helper()
	d1, _ := core.ParseDate("2024-01-05")
	d2, _ := core.ParseDate("2024-01-20")
	created := time.Date(2024, 1, 5, 1, 30, 0, 0, time.UTC)
	return []core.Transaction{
		{ID: 2, Date: d2, Amount: 200000, Category: "Salary", Type: core.Income, Description: "gaji, januari", CreatedAt: created},
		{ID: 1, Date: d1, Amount: 1234567, Category: "Food", Type: core.Expense, Description: `kopi "susu"`, CreatedAt: created},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample(t)); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"id,date,amount,category,type,description,created_at",
		`2,2024-01-20,200000,Salary,income,"gaji, januari",2024-01-05 08:30:00`,
		`1,2024-01-05,1234567,Food,expense,"kopi ""susu""",2024-01-05 08:30:00`,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines: %q", len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i+1, lines[i], want[i])
		}
	}
}

func TestWriteCSVEmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "id,date,amount,category,type,description,created_at\n" {
		t.Fatalf("got %q", got)
	}
}

func TestReadCSVRoundTrip(t *testing.T) {
	txs := sample(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, txs); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(txs) {
		t.Fatalf("got %d rows", len(rows))
	}
	for i, row := range rows {
		if row.Input != txs[i].Input() {
			t.Errorf("row %d input = %+v, want %+v", i, row.Input, txs[i].Input())
		}
		if row.ID != txs[i].ID || !row.CreatedAt.Equal(txs[i].CreatedAt) {
			t.Errorf("row %d meta = %d %v", i, row.ID, row.CreatedAt)
		}
		if row.Line != i+2 {
			t.Errorf("row %d line = %d", i, row.Line)
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	const head = "id,date,amount,category,type,description,created_at\n"
	cases := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrBadHeader},
		{"wrong header", "id,date,amount\n", nil},
		{"renamed column", "id,tanggal,amount,category,type,description,created_at\n", ErrBadHeader},
		{"zero amount", head + ",2024-01-05,0,Food,expense,,\n", core.ErrInvalidAmount},
		{"grouped amount", head + ",2024-01-05,1.000,Food,expense,,\n", core.ErrInvalidAmount},
		{"bad type", head + ",2024-01-05,10,Food,transfer,,\n", core.ErrInvalidType},
		{"bad date", head + ",05/01/2024,10,Food,expense,,\n", core.ErrInvalidDate},
		{"blank category", head + ",2024-01-05,10,  ,expense,,\n", core.ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReadCSVToleratesBOMAndBlankIDs(t *testing.T) {
	input := "\ufeffid,date,amount,category,type,description,created_at\n,2024-02-01,5000, Food ,expense, bakso ,\n"
	rows, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	in := rows[0].Input
	if in.Category != "Food" || in.Description != "bakso" || rows[0].ID != 0 {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}
