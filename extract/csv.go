package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV parses a header-first CSV stream. Rows may be ragged; short rows read as empty cells.
func ReadCSV(r io.Reader, name string) (RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return RawTable{Name: name}, nil
	}
	if err != nil {
		return RawTable{}, fmt.Errorf("%s: read header: %w", name, err)
	}
	if len(header) > 0 {
		// strip a UTF-8 BOM left by spreadsheet exports
		header[0] = trimBOM(header[0])
	}

	t := RawTable{Name: name, Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return RawTable{}, fmt.Errorf("%s: %w", name, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// WriteCSV writes t with its header.
func WriteCSV(w io.Writer, t RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
