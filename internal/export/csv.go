// Package export reads and writes the ledger CSV interchange format.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"dompet/internal/core"
)

// Filename is the attachment name offered by the HTTP export.
const Filename = "data_keuangan.csv"

// Header is the fixed column order of the export.
var Header = []string{"id", "date", "amount", "category", "type", "description", "created_at"}

var ErrBadHeader = errors.New("unexpected csv header")

// Record renders one transaction in export column order. Amounts are plain
// integers; created_at is WIB wall time.
func Record(tx core.Transaction) []string {
	return []string{
		strconv.FormatInt(tx.ID, 10),
		tx.Date.String(),
		strconv.FormatInt(tx.Amount, 10),
		string(tx.Category),
		string(tx.Type),
		tx.Description,
		core.FormatCreatedAt(tx.CreatedAt),
	}
}

// WriteCSV writes the header followed by one row per transaction.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		if err := cw.Write(Record(tx)); err != nil {
			return fmt.Errorf("write row %d: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row is one decoded export line. ID and CreatedAt are informational; an
// import always creates new transactions.
type Row struct {
	Line      int
	ID        int64
	Input     core.TransactionInput
	CreatedAt time.Time
}

// ReadCSV decodes an export. The header must match exactly (a UTF-8 BOM is
// tolerated). Field errors carry the 1-based line number.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrBadHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	head[0] = strings.TrimPrefix(head[0], "\ufeff")
	for i, h := range Header {
		if strings.TrimSpace(head[i]) != h {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i+1, head[i], h)
		}
	}

	var rows []Row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := decode(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.Line = line
		rows = append(rows, row)
	}
}

func decode(rec []string) (Row, error) {
	var row Row
	if s := strings.TrimSpace(rec[0]); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return row, fmt.Errorf("id: %w", err)
		}
		row.ID = id
	}

	date, err := core.ParseDate(rec[1])
	if err != nil {
		return row, err
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(rec[2]), 10, 64)
	if err != nil {
		return row, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	typ, err := core.ParseType(rec[4])
	if err != nil {
		return row, err
	}
	if s := strings.TrimSpace(rec[6]); s != "" {
		if row.CreatedAt, err = core.ParseCreatedAt(s); err != nil {
			return row, fmt.Errorf("created_at: %w", err)
		}
	}

	row.Input = core.TransactionInput{
		Date:        date,
		Amount:      amount,
		Category:    core.Category(rec[3]),
		Type:        typ,
		Description: rec[5],
	}.Normalize()
	if err := row.Input.Validate(); err != nil {
		return row, err
	}
	return row, nil
}
