// Package extract reads node voltage tables out of an HTML harmonic
// simulation report. Each frequency-solution section of the report
// carries a "Solution frequency: <N>Hz" heading followed by a node
// voltage table; Extract collects the rows for the requested buses
// into a frequency-ordered model.FrequencyTable.
package extract

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/harmonics/internal/model"
)

// Sentinel errors for malformed or incompatible reports.
var (
	ErrNoTables            = errors.New("no node voltage tables found")
	ErrMissingHeaderRow    = errors.New("header row missing")
	ErrMissingColumn       = errors.New("column label missing from header row")
	ErrBadFrequencyHeading = errors.New("malformed solution frequency heading")
	ErrNoFrequencyHeading  = errors.New("table has no preceding solution frequency heading")
	ErrDuplicateFrequency  = errors.New("frequency reported more than once")
	ErrDuplicateNode       = errors.New("node listed more than once in one table")
)

// Options locates the node voltage tables inside the report.
type Options struct {
	// TableID is the id attribute shared by every node voltage table.
	TableID string

	// NodeColumn and VoltageColumn are the header labels of the
	// node name and voltage magnitude columns.
	NodeColumn    string
	VoltageColumn string

	// HeaderRow is the zero-based index of the row holding the
	// column labels.
	HeaderRow int

	// Logger receives debug output. Nil disables logging.
	Logger *log.Logger
}

// DefaultOptions returns the layout of the standard report export.
func DefaultOptions() Options {
	return Options{
		TableID:       "NodeVoltagesTable",
		NodeColumn:    "Node",
		VoltageColumn: "Module (V)",
		HeaderRow:     1,
	}
}

var headingRe = regexp.MustCompile(`^Solution\s*frequency\s*:\s*(\d+)\s*(?:Hz)?$`)

// ParseFrequencyHeading parses a "Solution frequency: 180Hz" heading
// and returns the frequency in Hz.
func ParseFrequencyHeading(text string) (int, error) {
	m := headingRe.FindStringSubmatch(normalizeSpace(text))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadFrequencyHeading, text)
	}
	freq, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadFrequencyHeading, text, err)
	}
	return freq, nil
}

// ExtractFile reads the report at path and extracts the readings for
// buses.
func ExtractFile(path string, buses []string, opts Options) (*model.FrequencyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		return nil, fmt.Errorf("reading report %q: %w", path, err)
	}
	ft, err := Extract(doc, buses, opts)
	if err != nil {
		return nil, fmt.Errorf("extracting from %q: %w", path, err)
	}
	return ft, nil
}

// Extract walks the document in order, assigning each node voltage
// table the frequency of the nearest heading before it, and keeps
// the rows whose node is one of the phase-suffixed bus names. The
// column positions are resolved separately for every table.
func Extract(doc *Document, buses []string, opts Options) (*model.FrequencyTable, error) {
	logger := opts.Logger
	wanted := make(map[model.NodeName]bool)
	for _, n := range model.NodeNames(buses) {
		wanted[n] = true
	}

	var (
		sets     []model.FrequencySet
		seen     = make(map[int]bool)
		freq     int
		haveFreq bool
		tables   int
	)
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockHeading:
			f, err := ParseFrequencyHeading(b.Text)
			if err != nil {
				return nil, err
			}
			freq, haveFreq = f, true

		case BlockTable:
			if b.Table.ID != opts.TableID {
				continue
			}
			tables++
			if !haveFreq {
				return nil, fmt.Errorf("table %d: %w", tables, ErrNoFrequencyHeading)
			}
			if seen[freq] {
				return nil, fmt.Errorf("%d Hz: %w", freq, ErrDuplicateFrequency)
			}
			seen[freq] = true

			readings, err := tableReadings(b.Table, wanted, opts)
			if err != nil {
				return nil, fmt.Errorf("%d Hz table: %w", freq, err)
			}
			if logger != nil {
				logger.Debug("extracted table", "frequency", freq, "rows", len(b.Table.Rows), "readings", len(readings))
			}
			sets = append(sets, model.FrequencySet{Frequency: freq, Readings: readings})
		}
	}
	if tables == 0 {
		return nil, fmt.Errorf("%w (table id %q)", ErrNoTables, opts.TableID)
	}
	return model.NewFrequencyTable(sets), nil
}

// columns holds the resolved cell positions of one table.
type columns struct {
	node, voltage int
}

func resolveColumns(t *Table, opts Options) (columns, error) {
	header, err := t.Row(opts.HeaderRow)
	if err != nil {
		return columns{}, fmt.Errorf("%w: %w", ErrMissingHeaderRow, err)
	}
	cols := columns{
		node:    header.Index(opts.NodeColumn),
		voltage: header.Index(opts.VoltageColumn),
	}
	if cols.node < 0 {
		return columns{}, fmt.Errorf("%w: %q", ErrMissingColumn, opts.NodeColumn)
	}
	if cols.voltage < 0 {
		return columns{}, fmt.Errorf("%w: %q", ErrMissingColumn, opts.VoltageColumn)
	}
	return cols, nil
}

func tableReadings(t *Table, wanted map[model.NodeName]bool, opts Options) ([]model.Reading, error) {
	cols, err := resolveColumns(t, opts)
	if err != nil {
		return nil, err
	}
	var readings []model.Reading
	seen := make(map[model.NodeName]bool)
	for _, row := range t.Rows {
		node, ok := row.Cell(cols.node)
		if !ok || !wanted[model.NodeName(node)] {
			continue
		}
		voltage, ok := row.Cell(cols.voltage)
		if !ok {
			continue
		}
		if seen[model.NodeName(node)] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, node)
		}
		seen[model.NodeName(node)] = true
		readings = append(readings, model.Reading{Node: model.NodeName(node), Voltage: voltage})
	}
	return readings, nil
}
