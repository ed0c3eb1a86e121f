// Package model defines the node naming scheme, the frequency table
// built from a simulation report, and the per-node distortion
// statistics derived from it.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Phase is the single-character suffix that identifies one conductor
// of a three-phase bus.
type Phase byte

// Phase suffix constants, in display order.
const (
	PhaseA Phase = 'a'
	PhaseB Phase = 'b'
	PhaseC Phase = 'c'
)

// Phases lists every phase in display order.
var Phases = []Phase{PhaseA, PhaseB, PhaseC}

// Label returns the display label (e.g. "Phase A").
func (p Phase) Label() string {
	return "Phase " + strings.ToUpper(string(p))
}

// Valid reports whether p is one of a, b or c.
func (p Phase) Valid() bool {
	return p == PhaseA || p == PhaseB || p == PhaseC
}

// NodeName identifies a measurement point: a bus name followed by a
// single phase suffix (e.g. "FIBa").
type NodeName string

// Bus returns the node name with its phase suffix removed.
func (n NodeName) Bus() string {
	if n == "" {
		return ""
	}
	return string(n[:len(n)-1])
}

// Phase returns the trailing phase suffix. The result is only
// meaningful when Valid reports true.
func (n NodeName) Phase() Phase {
	if n == "" {
		return 0
	}
	return Phase(n[len(n)-1])
}

// Valid reports whether the name has a non-empty bus part and ends in
// a phase suffix.
func (n NodeName) Valid() bool {
	return len(n) > 1 && n.Phase().Valid()
}

// NodeNames expands each bus into its three phase-suffixed nodes.
func NodeNames(buses []string) []NodeName {
	names := make([]NodeName, 0, len(buses)*len(Phases))
	for _, bus := range buses {
		for _, p := range Phases {
			names = append(names, NodeName(bus+string(p)))
		}
	}
	return names
}

// Reading is one row of a node voltage table. The voltage stays in
// its report text form until a consumer needs the number.
type Reading struct {
	Node    NodeName `json:"node"`
	Voltage string   `json:"voltage"`
}

// Volts parses the voltage text as a float64.
func (r Reading) Volts() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Voltage), 64)
	if err != nil {
		return 0, &VoltageError{Node: r.Node, Text: r.Voltage, Err: err}
	}
	return v, nil
}

// VoltageError reports voltage text that is not a number.
type VoltageError struct {
	Node NodeName
	Text string
	Err  error
}

func (e *VoltageError) Error() string {
	return fmt.Sprintf("node %s: voltage %q is not a number", e.Node, e.Text)
}

func (e *VoltageError) Unwrap() error { return e.Err }

// FrequencySet holds all readings reported at one solution frequency.
type FrequencySet struct {
	Frequency int       `json:"frequency"`
	Readings  []Reading `json:"readings"`
}

// FrequencyTable maps solution frequencies (Hz) to node readings,
// ordered ascending by frequency. It is immutable once built.
type FrequencyTable struct {
	sets []FrequencySet
}

// NewFrequencyTable builds a table from the given sets, sorting them
// by frequency. The caller must not pass duplicate frequencies.
func NewFrequencyTable(sets []FrequencySet) *FrequencyTable {
	own := make([]FrequencySet, len(sets))
	for i, s := range sets {
		own[i] = FrequencySet{
			Frequency: s.Frequency,
			Readings:  append([]Reading(nil), s.Readings...),
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].Frequency < own[j].Frequency
	})
	return &FrequencyTable{sets: own}
}

// Len returns the number of frequencies in the table.
func (t *FrequencyTable) Len() int {
	return len(t.sets)
}

// Frequencies returns the frequencies in ascending order.
func (t *FrequencyTable) Frequencies() []int {
	out := make([]int, len(t.sets))
	for i, s := range t.sets {
		out[i] = s.Frequency
	}
	return out
}

// Readings returns a copy of the readings at freq.
func (t *FrequencyTable) Readings(freq int) ([]Reading, bool) {
	for _, s := range t.sets {
		if s.Frequency == freq {
			return append([]Reading(nil), s.Readings...), true
		}
	}
	return nil, false
}

// Sets returns a copy of every frequency set in ascending order.
func (t *FrequencyTable) Sets() []FrequencySet {
	out := make([]FrequencySet, len(t.sets))
	for i, s := range t.sets {
		out[i] = FrequencySet{
			Frequency: s.Frequency,
			Readings:  append([]Reading(nil), s.Readings...),
		}
	}
	return out
}

// HarmonicStats holds the distortion of one node relative to its
// fundamental voltage. Both values are ratios, not percentages.
type HarmonicStats struct {
	// THD is the total harmonic distortion.
	THD float64 `json:"thd"`

	// IHD maps harmonic order (frequency / fundamental) to the
	// individual harmonic distortion. Order 1 is never present.
	IHD map[int]float64 `json:"ihd"`
}

// Orders returns the harmonic orders present in IHD, ascending.
func (s HarmonicStats) Orders() []int {
	orders := make([]int, 0, len(s.IHD))
	for h := range s.IHD {
		orders = append(orders, h)
	}
	sort.Ints(orders)
	return orders
}

// PhaseGroup is the set of nodes that share one bus. Members are
// ordered a, b, c; any non-empty subset of phases may be present.
type PhaseGroup struct {
	Bus     string     `json:"bus"`
	Members []NodeName `json:"members"`
}

// Member returns the node for phase p, if present.
func (g PhaseGroup) Member(p Phase) (NodeName, bool) {
	for _, m := range g.Members {
		if m.Phase() == p {
			return m, true
		}
	}
	return "", false
}
