package parser

import (
	"io"
	"strings"

	"github.com/KaramelBytes/dqboard/internal/dataset"
)

type csvParser struct{}

func (csvParser) Extensions() []string { return []string{".csv", ".tsv"} }

func (p csvParser) CanParse(filename string) bool { return hasExt(filename, p.Extensions()) }

func (csvParser) Parse(r io.Reader, name string, opt Options) (*dataset.Dataset, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	return dataset.ReadCSV(r, name, dataset.CSVOptions{Delimiter: delim, MaxRows: opt.MaxRows})
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	// Default to comma; the filename is the only hint for a streamed upload.
	return ','
}
