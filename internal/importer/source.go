package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source yields rows keyed by field name. Next returns io.EOF after the last row.
type Source interface {
	Next() (map[string]any, error)
}

type SliceSource struct {
	rows []map[string]any
	next int
}

func NewSliceSource(rows []map[string]any) *SliceSource {
	return &SliceSource{rows: rows}
}

func (s *SliceSource) Next() (map[string]any, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

// XLSXSource reads one sheet of a workbook. The first row holds the field names;
// empty cells are left out of the row so that they bind as NULL.
type XLSXSource struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
}

// OpenXLSX reads sheet from r, or the first sheet when sheet is empty.
func OpenXLSX(r io.Reader, sheet string) (*XLSXSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	s := &XLSXSource{file: f, rows: rows}
	if !rows.Next() {
		_ = s.Close()
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}
	header, err := rows.Columns()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	s.header = header
	return s, nil
}

func (s *XLSXSource) Header() []string {
	return s.header
}

func (s *XLSXSource) Next() (map[string]any, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	cells, err := s.rows.Columns()
	if err != nil {
		return nil, err
	}

	row := make(map[string]any, len(s.header))
	for i, v := range cells {
		if i >= len(s.header) || s.header[i] == "" || v == "" {
			continue
		}
		row[s.header[i]] = v
	}
	return row, nil
}

func (s *XLSXSource) Close() error {
	if s.rows != nil {
		_ = s.rows.Close()
	}
	return s.file.Close()
}
