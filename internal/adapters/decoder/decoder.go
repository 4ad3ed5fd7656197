// Package decoder turns spreadsheet files into a pull-based stream of header-keyed rows.
package decoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/okian/bizboard/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

const defaultMaxSize = 256 << 20

// Decoder opens a spreadsheet for streaming.
type Decoder interface {
	// Open prepares a stream over r. size is informational and may be -1 when unknown.
	// Malformed input fails with ErrDecodeFatal.
	Open(ctx context.Context, r io.Reader, size int64) (RowStream, error)
}

// RowStream is a finite, forward-only sequence of rows. It is not safe for concurrent use.
type RowStream interface {
	// Next returns the next non-blank data row, or io.EOF once the sheet is exhausted.
	Next(ctx context.Context) (model.RawRow, error)
	// Position is the 1-based sheet row number of the row last returned by Next.
	Position() int
	// Headers returns the header row as read from the sheet.
	Headers() []string
	Close() error
}

// Excel decodes workbooks. OOXML files go through excelize and legacy BIFF files,
// recognized by their OLE2 signature whatever the extension, go through the BIFF reader.
// The first non-blank row of the sheet is the header.
type Excel struct {
	sheet   string
	maxSize int64
}

// NewExcel creates an Excel decoder.
func NewExcel(opts ...Option) *Excel {
	d := &Excel{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open implements Decoder.
func (d *Excel) Open(ctx context.Context, r io.Reader, size int64) (RowStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size > d.maxSize {
		return nil, fmt.Errorf("%w: workbook is %d bytes, limit %d", ErrDecodeFatal, size, d.maxSize)
	}

	br := bufio.NewReader(io.LimitReader(r, d.maxSize+1))
	magic, _ := br.Peek(len(ole2Magic))
	var (
		cur cursor
		err error
	)
	if bytes.Equal(magic, ole2Magic) {
		cur, err = d.openBIFF(br)
	} else {
		cur, err = d.openOOXML(br)
	}
	if err != nil {
		return nil, err
	}
	return &stream{cur: cur}, nil
}

func (d *Excel) openOOXML(r io.Reader) (cursor, error) {
	f, err := excelize.OpenReader(r, excelize.Options{
		UnzipSizeLimit: d.maxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFatal, err)
	}

	sheet := d.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrDecodeFatal)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: sheet %q: %w", ErrDecodeFatal, sheet, err)
	}
	return &ooxmlCursor{file: f, rows: rows}, nil
}

// cursor walks the raw rows of one sheet. next returns the 1-based sheet row number
// with the cells, or io.EOF.
type cursor interface {
	next() (int, []string, error)
	close() error
}

type ooxmlCursor struct {
	file *excelize.File
	rows *excelize.Rows
	pos  int
}

func (c *ooxmlCursor) next() (int, []string, error) {
	if !c.rows.Next() {
		if err := c.rows.Error(); err != nil {
			return 0, nil, fmt.Errorf("%w: %w", ErrDecodeFatal, err)
		}
		return 0, nil, io.EOF
	}
	c.pos++
	cols, err := c.rows.Columns()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: row %d: %w", ErrDecodeFatal, c.pos, err)
	}
	return c.pos, cols, nil
}

func (c *ooxmlCursor) close() error {
	rerr := c.rows.Close()
	ferr := c.file.Close()
	if rerr != nil {
		return rerr
	}
	return ferr
}

type stream struct {
	cur      cursor
	headers  []string
	position int
	closed   bool
}

func (s *stream) Next(ctx context.Context) (model.RawRow, error) {
	if s.closed {
		return nil, ErrClosed
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pos, cols, err := s.cur.next()
		if err != nil {
			return nil, err
		}
		s.position = pos
		if blank(cols) {
			continue
		}
		if s.headers == nil {
			s.headers = trimAll(cols)
			continue
		}
		return s.row(cols), nil
	}
}

// row keys cells by header. Cells without a header are dropped and a repeated header keeps its first column.
func (s *stream) row(cols []string) model.RawRow {
	row := make(model.RawRow, len(s.headers))
	for i, h := range s.headers {
		if h == "" || i >= len(cols) {
			continue
		}
		if _, dup := row[h]; dup {
			continue
		}
		row[h] = cols[i]
	}
	return row
}

func (s *stream) Position() int { return s.position }

func (s *stream) Headers() []string { return s.headers }

func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cur.close()
}

func blank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
