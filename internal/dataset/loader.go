package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Options controls how raw tabular input becomes a Dataset.
type Options struct {
	// MaxRows limits rows kept; 0 means unlimited.
	MaxRows int
	// Delimiter for delimited text. If 0, tab for .tsv files and comma otherwise.
	Delimiter rune
	// DecimalSeparator for numeric cells; 0 means '.'.
	DecimalSeparator rune
	// ThousandsSeparator is stripped from numeric cells when set.
	ThousandsSeparator rune
	// ParseDates names columns loaded as native datetimes.
	ParseDates []string
	// Categorical names columns loaded as categorical labels.
	Categorical []string
	// SheetName selects an XLSX sheet by name.
	SheetName string
	// SheetIndex selects an XLSX sheet by 1-based index when SheetName is empty.
	SheetIndex int
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{MaxRows: 100000, SheetIndex: 1}
}

// Loader turns a named byte stream into a Dataset.
type Loader interface {
	CanLoad(name string) bool
	Load(name string, r io.Reader, opt Options) (*Dataset, error)
}

// ErrUnsupported indicates a file format no registered loader accepts.
var ErrUnsupported = errors.New("unsupported dataset format")

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Read selects a loader by name and reads the dataset from r.
func Read(name string, r io.Reader, opt Options) (*Dataset, error) {
	for _, l := range registry {
		if l.CanLoad(name) {
			ds, err := l.Load(name, r, opt)
			if err != nil {
				return nil, err
			}
			ds.Name = filepath.Base(name)
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
}

// LoadFile opens path and reads it with the matching loader.
func LoadFile(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(path, f, opt)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
