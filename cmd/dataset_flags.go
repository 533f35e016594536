package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/KaramelBytes/datasage-cli/internal/dataset"
)

// datasetFlags holds the loader flags shared by every dataset command.
type datasetFlags struct {
	delimiter   string
	decimal     string
	thousands   string
	maxRows     int
	parseDates  []string
	categorical []string
	sheetName   string
	sheetIndex  int
}

func (f *datasetFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.delimiter, "delimiter", "", "field delimiter: ',' | ';' | 'tab' (default: by extension)")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator: '.' | 'comma'")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator: ',' | '.' | 'space'")
	fs.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to load (default from config max_rows)")
	fs.StringSliceVar(&f.parseDates, "parse-dates", nil, "columns to load as datetimes")
	fs.StringSliceVar(&f.categorical, "categorical", nil, "columns to load as categorical labels")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX sheet name")
	fs.IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX sheet index, 1-based (default 1)")
}

func (f *datasetFlags) options() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	if cfg != nil && cfg.MaxRows > 0 {
		opt.MaxRows = cfg.MaxRows
	}
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	switch f.delimiter {
	case "":
	case ",", "comma":
		opt.Delimiter = ','
	case ";", "semicolon":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.ParseDates = f.parseDates
	opt.Categorical = f.categorical
	opt.SheetName = f.sheetName
	if f.sheetIndex > 0 {
		opt.SheetIndex = f.sheetIndex
	}
	return opt, nil
}

func (f *datasetFlags) load(path string) (*dataset.Dataset, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	return dataset.LoadFile(path, opt)
}
