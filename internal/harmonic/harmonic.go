// Package harmonic computes voltage distortion statistics from a
// frequency table.
//
// For a node with fundamental voltage V1 and harmonic voltages Vh:
//
//	IHD(h) = Vh / V1
//	THD    = sqrt(sum(Vh^2)) / V1
//
// Both are ratios; callers multiply by 100 for percentages.
package harmonic

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/unbound-force/harmonics/internal/model"
)

// DefaultFundamental is the system frequency in Hz.
const DefaultFundamental = 60

// Sentinel errors for tables that break the THD preconditions.
var (
	ErrNoFundamental   = errors.New("no readings at the fundamental frequency")
	ErrNotHarmonic     = errors.New("frequency is not a multiple of the fundamental")
	ErrUnknownNode     = errors.New("node has no fundamental reading")
	ErrZeroFundamental = errors.New("fundamental voltage is zero")
	ErrDuplicateNode   = errors.New("node has more than one reading at a frequency")
)

// Compute returns the distortion of every node that appears at a
// non-fundamental frequency. Every such node must also have a
// reading at the fundamental, and every frequency must be an exact
// multiple of it.
func Compute(ft *model.FrequencyTable, fundamental int) (map[model.NodeName]model.HarmonicStats, error) {
	if fundamental <= 0 {
		return nil, fmt.Errorf("fundamental must be positive, got %d", fundamental)
	}
	fund, err := fundamentalVoltages(ft, fundamental)
	if err != nil {
		return nil, err
	}

	components := make(map[model.NodeName][]float64)
	out := make(map[model.NodeName]model.HarmonicStats)

	for _, set := range ft.Sets() {
		if set.Frequency == fundamental {
			continue
		}
		if set.Frequency <= 0 || set.Frequency%fundamental != 0 {
			return nil, fmt.Errorf("%d Hz: %w (%d Hz)", set.Frequency, ErrNotHarmonic, fundamental)
		}
		order := set.Frequency / fundamental

		for _, r := range set.Readings {
			if _, dup := out[r.Node].IHD[order]; dup {
				return nil, fmt.Errorf("%d Hz: %w: %s", set.Frequency, ErrDuplicateNode, r.Node)
			}
			v, err := r.Volts()
			if err != nil {
				return nil, fmt.Errorf("%d Hz: %w", set.Frequency, err)
			}
			v1, ok := fund[r.Node]
			if !ok {
				return nil, fmt.Errorf("%d Hz: %w: %s", set.Frequency, ErrUnknownNode, r.Node)
			}
			if v1 == 0 {
				return nil, fmt.Errorf("%w: %s", ErrZeroFundamental, r.Node)
			}

			st, ok := out[r.Node]
			if !ok {
				st = model.HarmonicStats{IHD: make(map[int]float64)}
			}
			st.IHD[order] = v / v1
			out[r.Node] = st
			components[r.Node] = append(components[r.Node], v)
		}
	}

	for node, st := range out {
		st.THD = floats.Norm(components[node], 2) / fund[node]
		out[node] = st
	}
	return out, nil
}

func fundamentalVoltages(ft *model.FrequencyTable, fundamental int) (map[model.NodeName]float64, error) {
	readings, ok := ft.Readings(fundamental)
	if !ok {
		return nil, fmt.Errorf("%w (%d Hz)", ErrNoFundamental, fundamental)
	}
	fund := make(map[model.NodeName]float64, len(readings))
	for _, r := range readings {
		if _, dup := fund[r.Node]; dup {
			return nil, fmt.Errorf("%d Hz: %w: %s", fundamental, ErrDuplicateNode, r.Node)
		}
		v, err := r.Volts()
		if err != nil {
			return nil, fmt.Errorf("%d Hz: %w", fundamental, err)
		}
		fund[r.Node] = v
	}
	return fund, nil
}

// THDFromIHD recomputes THD from the individual ratios. It equals
// HarmonicStats.THD up to floating point rounding.
func THDFromIHD(ihd map[int]float64) float64 {
	vals := make([]float64, 0, len(ihd))
	for _, h := range sortedKeys(ihd) {
		vals = append(vals, ihd[h])
	}
	return floats.Norm(vals, 2)
}

// Orders returns the union of harmonic orders across stats, ascending.
func Orders(stats map[model.NodeName]model.HarmonicStats) []int {
	set := make(map[int]float64)
	for _, st := range stats {
		for h := range st.IHD {
			set[h] = 0
		}
	}
	return sortedKeys(set)
}

// Nodes returns the node names in stats in lexical order.
func Nodes(stats map[model.NodeName]model.HarmonicStats) []model.NodeName {
	nodes := make([]model.NodeName, 0, len(stats))
	for n := range stats {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
