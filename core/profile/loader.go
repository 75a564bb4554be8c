package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DecodeOptions describes the layout of a profile file.
type DecodeOptions struct {
	Separator    rune   // field separator, ';' when zero
	Column       string // header of the ratio column, "y" when empty
	DecimalComma bool   // values use ',' as decimal mark
}

func (o *DecodeOptions) setDefaults() {
	if o.Separator == 0 {
		o.Separator = ';'
	}
	if o.Column == "" {
		o.Column = "y"
	}
}

// Decode reads a profile from a delimited file with a header row.
func Decode(r io.Reader, opts DecodeOptions) (*Profile, error) {
	opts.setDefaults()
	cr := csv.NewReader(r)
	cr.Comma = opts.Separator
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), opts.Column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found", opts.Column)
	}
	var ratios []float64
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if col >= len(rec) {
			return nil, fmt.Errorf("line %d: missing column %q", line, opts.Column)
		}
		raw := strings.TrimSpace(rec[col])
		if opts.DecimalComma {
			raw = strings.ReplaceAll(raw, ",", ".")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ratios = append(ratios, v)
	}
	return New(ratios)
}

// Load opens path and decodes it with opts.
func Load(path string, opts DecodeOptions) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, opts)
}
