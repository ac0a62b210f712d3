package xlsxreader

import "github.com/sheetatlas/sheetatlas"

// Options configures workbook loading.
type Options struct {
	headerRows    int
	columnNames   []string
	maxHeaderScan int
	pool          *sheetatlas.InternPool
}

// Option is a functional option for configuring the reader.
type Option func(*Options)

// defaultOptions returns the default reader configuration.
func defaultOptions() *Options {
	return &Options{
		headerRows:    -1,
		maxHeaderScan: 10,
	}
}

// WithHeaderRows fixes the number of header rows per sheet instead of
// detecting them. Zero means the sheet has no headers.
func WithHeaderRows(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.headerRows = n
		}
	}
}

// WithColumnNames overrides column names for every sheet. When fewer names
// are given than a sheet has columns, the rest fall back to column letters.
func WithColumnNames(names ...string) Option {
	return func(o *Options) {
		o.columnNames = names
	}
}

// WithMaxHeaderScan bounds how many leading rows header detection examines.
func WithMaxHeaderScan(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.maxHeaderScan = n
		}
	}
}

// WithInternPool deduplicates text cell values through the given pool.
func WithInternPool(p *sheetatlas.InternPool) Option {
	return func(o *Options) {
		o.pool = p
	}
}
