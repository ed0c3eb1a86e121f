package harmonic

import (
	"sort"

	"github.com/unbound-force/harmonics/internal/model"
)

// GroupPhases groups nodes by bus. Buses keep the order in which
// they are first seen; members within a bus are ordered a, b, c.
// Partial groups are returned as-is. Duplicate names are collapsed
// and names without a phase suffix are ignored.
func GroupPhases(nodes []model.NodeName) []model.PhaseGroup {
	var groups []model.PhaseGroup
	index := make(map[string]int)
	seen := make(map[model.NodeName]bool)

	for _, n := range nodes {
		if !n.Valid() || seen[n] {
			continue
		}
		seen[n] = true
		bus := n.Bus()
		i, ok := index[bus]
		if !ok {
			i = len(groups)
			index[bus] = i
			groups = append(groups, model.PhaseGroup{Bus: bus})
		}
		groups[i].Members = append(groups[i].Members, n)
	}

	for _, g := range groups {
		sort.Slice(g.Members, func(i, j int) bool {
			return g.Members[i].Phase() < g.Members[j].Phase()
		})
	}
	return groups
}

// GroupStats groups the nodes of stats by bus. Buses appear in the
// order their first node takes in a lexical sort of node names, so
// "FIB_2" comes before "FIB".
func GroupStats(stats map[model.NodeName]model.HarmonicStats) []model.PhaseGroup {
	return GroupPhases(Nodes(stats))
}
