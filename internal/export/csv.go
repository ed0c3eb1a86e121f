package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unbound-force/harmonics/internal/model"
)

// BaseName returns the input file name without directory or
// extension; output files are named after it.
func BaseName(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WriteCSV writes the pivot to dir/<input base>.csv, creating dir if
// needed, and returns the written path.
func WriteCSV(p *Pivot, dir, inputPath, nodeHeader string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating csv directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, BaseName(inputPath)+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, p, nodeHeader); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// Encode writes the pivot records as CSV to w.
func Encode(w io.Writer, p *Pivot, nodeHeader string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(p.Records(nodeHeader)); err != nil {
		return err
	}
	return cw.Error()
}

// ReadCSV parses CSV written by Encode back into a Pivot. The first
// column is taken as node names whatever its header says.
func ReadCSV(r io.Reader) (*Pivot, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("reading csv: no header row")
	}

	header := records[0]
	freqs := make([]int, len(header)-1)
	for i, h := range header[1:] {
		f, err := strconv.Atoi(h)
		if err != nil {
			return nil, fmt.Errorf("reading csv: header %q is not a frequency: %w", h, err)
		}
		freqs[i] = f
	}

	p := &Pivot{Columns: make(map[int][]float64, len(freqs))}
	for _, f := range freqs {
		p.Columns[f] = make([]float64, 0, len(records)-1)
	}
	for line, rec := range records[1:] {
		p.Nodes = append(p.Nodes, model.NodeName(rec[0]))
		for i, f := range freqs {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("reading csv: line %d: %w", line+2, err)
			}
			p.Columns[f] = append(p.Columns[f], v)
		}
	}
	return p, nil
}
