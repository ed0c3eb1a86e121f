package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TextOptions controls the human-readable output.
type TextOptions struct {
	// THDLimit is the THD percentage at or above which a node is
	// highlighted and counted as flagged.
	THDLimit float64
}

// WriteText writes the summary as styled text: one table row per
// node followed by summary lines. Output uses lipgloss for color
// when the output is a TTY and degrades gracefully for pipes and CI.
func WriteText(w io.Writer, s *Summary, opts TextOptions) error {
	st := DefaultStyles()

	fmt.Fprintln(w, st.Header.Render(fmt.Sprintf("=== %s ===", s.Input)))
	fmt.Fprintln(w, st.SubHeader.Render(fmt.Sprintf("    fundamental %d Hz, %d solution frequencies",
		s.Fundamental, len(s.Frequencies))))

	if len(s.Nodes) == 0 {
		fmt.Fprintln(w, st.Muted.Render("    No harmonic readings found."))
		return nil
	}
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		rows = append(rows, []string{
			string(n.Node),
			fmt.Sprintf("%.2f%%", n.THDPercent),
			fmt.Sprintf("%d", n.WorstOrder),
			fmt.Sprintf("%.3f%%", worstPercent(n)),
			fmt.Sprintf("%d", len(n.IHD)),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.TableHeader
			}
			// Color the THD column against the limit.
			if col == 1 && row >= 0 && row < len(s.Nodes) {
				return st.THDStyle(s.Nodes[row].THDPercent, opts.THDLimit)
			}
			return st.TableCell
		}).
		Headers("NODE", "THD", "WORST", "WORST IHD", "HARMONICS").
		Rows(rows...)

	fmt.Fprintln(w, t)

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Header.Render("--- Summary ---"))
	fmt.Fprintf(w, "%s  %d\n", st.SummaryLabel.Render("Nodes:"), len(s.Nodes))
	fmt.Fprintf(w, "%s  %d\n", st.SummaryLabel.Render("Buses:"), len(s.Groups))
	fmt.Fprintf(w, "%s  %s\n", st.SummaryLabel.Render("Frequencies:"), joinInts(s.Frequencies))
	fmt.Fprintf(w, "%s  %.1f%%\n", st.SummaryLabel.Render("THD limit:"), opts.THDLimit)

	flagged := fmt.Sprintf("%d", s.Flagged(opts.THDLimit))
	if s.Flagged(opts.THDLimit) > 0 {
		flagged = st.OverLimit.Render(flagged) + st.Muted.Render(" (nodes at or above limit)")
	}
	fmt.Fprintf(w, "%s  %s\n", st.SummaryLabel.Render("Flagged:"), flagged)

	var partial []string
	for _, g := range s.Groups {
		if len(g.Members) < 3 {
			partial = append(partial, g.Bus)
		}
	}
	if len(partial) > 0 {
		fmt.Fprintf(w, "%s  %s\n", st.SummaryLabel.Render("Partial buses:"),
			st.Muted.Render(strings.Join(partial, ", ")))
	}
	return nil
}

func worstPercent(n NodeSummary) float64 {
	for _, h := range n.IHD {
		if h.Order == n.WorstOrder {
			return h.Percent
		}
	}
	return 0
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
