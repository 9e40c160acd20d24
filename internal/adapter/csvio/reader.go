package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/landlord-risk-etl/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable reads a CSV file with a header row.
func ReadTable(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	t, err := ParseTable(f)
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// ParseTable reads CSV with a header row from r. Exports from city portals
// are ragged and loosely quoted, so short rows read missing cells as "" and
// extra cells are ignored. An empty input yields an empty Table.
func ParseTable(r io.Reader) (domain.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{}, nil
	}
	if err != nil {
		return domain.Table{}, err
	}

	t := domain.Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, err
		}
		row := make(domain.Row, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
