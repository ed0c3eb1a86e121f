package report

import (
	"github.com/unbound-force/harmonics/internal/harmonic"
	"github.com/unbound-force/harmonics/internal/model"
)

// Version is the JSON report schema version.
const Version = "0.1.0"

// Summary is the distortion report for one input file.
type Summary struct {
	Version     string             `json:"version"`
	Input       string             `json:"input"`
	Fundamental int                `json:"fundamental"`
	Frequencies []int              `json:"frequencies"`
	Nodes       []NodeSummary      `json:"nodes"`
	Groups      []model.PhaseGroup `json:"groups"`
}

// NodeSummary is the distortion of one node. Percent fields are the
// ratios multiplied by 100.
type NodeSummary struct {
	Node       model.NodeName `json:"node"`
	Bus        string         `json:"bus"`
	Phase      string         `json:"phase"`
	THD        float64        `json:"thd"`
	THDPercent float64        `json:"thd_percent"`
	IHD        []Harmonic     `json:"ihd"`

	// WorstOrder is the harmonic order with the largest IHD.
	WorstOrder int `json:"worst_order"`
}

// Harmonic is one individual harmonic distortion entry.
type Harmonic struct {
	Order   int     `json:"order"`
	Ratio   float64 `json:"ratio"`
	Percent float64 `json:"percent"`
}

// Build assembles a Summary. Nodes are ordered by name and IHD
// entries by harmonic order.
func Build(input string, fundamental int, frequencies []int, stats map[model.NodeName]model.HarmonicStats) *Summary {
	s := &Summary{
		Version:     Version,
		Input:       input,
		Fundamental: fundamental,
		Frequencies: append([]int{}, frequencies...),
		Nodes:       []NodeSummary{},
		Groups:      harmonic.GroupStats(stats),
	}
	if s.Groups == nil {
		s.Groups = []model.PhaseGroup{}
	}

	for _, n := range harmonic.Nodes(stats) {
		st := stats[n]
		ns := NodeSummary{
			Node:       n,
			Bus:        n.Bus(),
			Phase:      string(n.Phase()),
			THD:        st.THD,
			THDPercent: st.THD * 100,
			IHD:        []Harmonic{},
		}
		worst := -1.0
		for _, h := range st.Orders() {
			r := st.IHD[h]
			ns.IHD = append(ns.IHD, Harmonic{Order: h, Ratio: r, Percent: r * 100})
			if r > worst {
				worst, ns.WorstOrder = r, h
			}
		}
		s.Nodes = append(s.Nodes, ns)
	}
	return s
}

// Flagged counts nodes whose THD percentage is at or above limit.
func (s *Summary) Flagged(limit float64) int {
	n := 0
	for _, ns := range s.Nodes {
		if ns.THDPercent >= limit {
			n++
		}
	}
	return n
}
