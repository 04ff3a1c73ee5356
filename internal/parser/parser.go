package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

// Options tunes how a tabular file is read.
type Options struct {
	// Sheet selects a workbook sheet by name or 1-based index. Empty means the first sheet.
	Sheet string
	// Delimiter for CSV. If 0, picked from the extension.
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
}

// Parser defines a tabular file parser implementation.
type Parser interface {
	CanParse(filename string) bool
	Parse(r io.Reader, name string, opt Options) (*dataset.Dataset, error)
	Extensions() []string
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseFile selects a parser based on filename and loads the dataset.
func ParseFile(path string, opt Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Parse(f, filepath.Base(path), opt)
}

// Parse loads a dataset from a stream; name picks the parser and labels the result.
func Parse(r io.Reader, name string, opt Options) (*dataset.Dataset, error) {
	for _, p := range registry {
		if p.CanParse(name) {
			d, err := p.Parse(r, name, opt)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
			return d, nil
		}
	}
	return nil, &UnsupportedError{Name: name}
}

// SupportedExtensions lists every registered extension, sorted.
func SupportedExtensions() []string {
	var out []string
	for _, p := range registry {
		out = append(out, p.Extensions()...)
	}
	sort.Strings(out)
	return out
}

func hasExt(filename string, exts []string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func init() {
	// Register default parsers
	Register(csvParser{})
	Register(xlsxParser{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported file format")

// UnsupportedError names the file that no parser accepted.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %v (supported: %s)", e.Name, ErrUnsupported, strings.Join(SupportedExtensions(), ", "))
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported || target == dataset.ErrInvalidInput
}
