// Package export pivots a frequency table into one column per
// frequency and writes it as CSV or as an Excel workbook.
package export

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/unbound-force/harmonics/internal/model"
)

// NodeKey is the column key of the node-name column. It sorts before
// every frequency.
const NodeKey = 0

// ErrRaggedTable is returned when a frequency does not report the
// same nodes, in the same order, as the first frequency.
var ErrRaggedTable = errors.New("frequencies report different nodes")

// Pivot is a column-oriented view of a frequency table: the node
// names of the first frequency, and one float column per frequency
// aligned with them.
type Pivot struct {
	Nodes   []model.NodeName
	Columns map[int][]float64
}

// BuildPivot parses every voltage and aligns the columns on the node
// list of the first (lowest) frequency.
func BuildPivot(ft *model.FrequencyTable) (*Pivot, error) {
	sets := ft.Sets()
	if len(sets) == 0 {
		return nil, errors.New("frequency table is empty")
	}

	p := &Pivot{Columns: make(map[int][]float64, len(sets))}
	for _, r := range sets[0].Readings {
		p.Nodes = append(p.Nodes, r.Node)
	}

	for _, set := range sets {
		if len(set.Readings) != len(p.Nodes) {
			return nil, fmt.Errorf("%w: %d Hz has %d rows, %d Hz has %d",
				ErrRaggedTable, set.Frequency, len(set.Readings), sets[0].Frequency, len(p.Nodes))
		}
		col := make([]float64, len(set.Readings))
		for i, r := range set.Readings {
			if r.Node != p.Nodes[i] {
				return nil, fmt.Errorf("%w: %d Hz row %d is %s, expected %s",
					ErrRaggedTable, set.Frequency, i, r.Node, p.Nodes[i])
			}
			v, err := r.Volts()
			if err != nil {
				return nil, fmt.Errorf("%d Hz: %w", set.Frequency, err)
			}
			col[i] = v
		}
		p.Columns[set.Frequency] = col
	}
	return p, nil
}

// Frequencies returns the frequency column keys, ascending.
func (p *Pivot) Frequencies() []int {
	keys := make([]int, 0, len(p.Columns))
	for k := range p.Columns {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Keys returns every column key, the node key first.
func (p *Pivot) Keys() []int {
	return append([]int{NodeKey}, p.Frequencies()...)
}

// Records renders the pivot as a header row followed by one row per
// node. nodeHeader labels the node column; floats use the shortest
// representation that parses back to the same value.
func (p *Pivot) Records(nodeHeader string) [][]string {
	freqs := p.Frequencies()

	header := make([]string, 0, len(freqs)+1)
	header = append(header, nodeHeader)
	for _, f := range freqs {
		header = append(header, strconv.Itoa(f))
	}

	records := make([][]string, 0, len(p.Nodes)+1)
	records = append(records, header)
	for i, n := range p.Nodes {
		row := make([]string, 0, len(freqs)+1)
		row = append(row, string(n))
		for _, f := range freqs {
			row = append(row, strconv.FormatFloat(p.Columns[f][i], 'g', -1, 64))
		}
		records = append(records, row)
	}
	return records
}
