package decoder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/extrame/xls"
)

// ole2Magic starts every compound document, which is how legacy .xls files are stored.
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const biffCharset = "utf-8"

// openBIFF reads a legacy workbook. The BIFF reader needs random access, so the
// file is buffered in memory; Open has already capped its size.
func (d *Excel) openBIFF(r io.Reader) (cur cursor, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrDecodeFatal, err)
	}
	if int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("%w: workbook exceeds %d bytes", ErrDecodeFatal, d.maxSize)
	}

	// The BIFF reader panics on some malformed records.
	defer func() {
		if p := recover(); p != nil {
			cur, err = nil, fmt.Errorf("%w: malformed xls: %v", ErrDecodeFatal, p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), biffCharset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFatal, err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrDecodeFatal)
	}

	var sheet *xls.WorkSheet
	if d.sheet == "" {
		sheet = wb.GetSheet(0)
	} else {
		for i := 0; i < wb.NumSheets(); i++ {
			if ws := wb.GetSheet(i); ws != nil && ws.Name == d.sheet {
				sheet = ws
				break
			}
		}
	}
	if sheet == nil {
		return nil, fmt.Errorf("%w: sheet %q not found", ErrDecodeFatal, d.sheet)
	}
	return &biffCursor{sheet: sheet, last: int(sheet.MaxRow)}, nil
}

// biffCursor walks rows 0..MaxRow of a parsed sheet. Missing rows come back empty.
type biffCursor struct {
	sheet *xls.WorkSheet
	index int
	last  int
}

func (c *biffCursor) next() (pos int, cols []string, err error) {
	if c.index > c.last {
		return 0, nil, io.EOF
	}
	i := c.index
	c.index++

	defer func() {
		if p := recover(); p != nil {
			pos, cols, err = 0, nil, fmt.Errorf("%w: row %d: %v", ErrDecodeFatal, i+1, p)
		}
	}()

	row := c.sheet.Row(i)
	if row == nil {
		return i + 1, nil, nil
	}
	n := row.LastCol()
	cols = make([]string, n)
	for j := 0; j < n; j++ {
		cols[j] = row.Col(j)
	}
	return i + 1, cols, nil
}

func (c *biffCursor) close() error { return nil }
