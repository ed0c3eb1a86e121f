// Package report formats distortion results for the terminal (styled
// text) and for machines (JSON).
package report

import (
	"encoding/json"
	"io"
)

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, s *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
