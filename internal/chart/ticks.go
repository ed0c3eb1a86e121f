package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
)

// PercentTicks places a minor tick every Minor units and a labelled
// major tick every Major units, starting from the axis minimum.
type PercentTicks struct {
	Major float64
	Minor float64
}

// Ticks implements plot.Ticker.
func (t PercentTicks) Ticks(min, max float64) []plot.Tick {
	if t.Minor <= 0 || max <= min {
		return nil
	}
	steps := int(math.Round((max - min) / t.Minor))
	every := int(math.Round(t.Major / t.Minor))
	if every < 1 {
		every = 1
	}

	ticks := make([]plot.Tick, 0, steps+1)
	for i := 0; i <= steps; i++ {
		v := min + float64(i)*t.Minor
		tick := plot.Tick{Value: v}
		if i%every == 0 {
			tick.Label = fmt.Sprintf("%.1f%%", v)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}
