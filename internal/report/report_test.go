package report

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/unbound-force/harmonics/internal/model"
)

func sampleStats() map[model.NodeName]model.HarmonicStats {
	return map[model.NodeName]model.HarmonicStats{
		"FIBa": {THD: 0.05, IHD: map[int]float64{3: 0.03, 5: 0.04}},
		"FIBb": {THD: 0.01, IHD: map[int]float64{3: 0.01}},
		"FIBc": {THD: 0.07, IHD: map[int]float64{5: 0.07}},
		"FMCa": {THD: 0.002, IHD: map[int]float64{7: 0.002}},
	}
}

func sampleSummary() *Summary {
	return Build("runs/cal001.html", 60, []int{60, 180, 300, 420}, sampleStats())
}

func TestBuild_OrdersNodesAndHarmonics(t *testing.T) {
	s := sampleSummary()
	if len(s.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(s.Nodes))
	}
	if s.Nodes[0].Node != "FIBa" || s.Nodes[3].Node != "FMCa" {
		t.Errorf("unexpected node order: %v, %v", s.Nodes[0].Node, s.Nodes[3].Node)
	}
	fiba := s.Nodes[0]
	if len(fiba.IHD) != 2 || fiba.IHD[0].Order != 3 || fiba.IHD[1].Order != 5 {
		t.Errorf("FIBa IHD = %+v", fiba.IHD)
	}
	if fiba.WorstOrder != 5 {
		t.Errorf("FIBa worst order = %d, want 5", fiba.WorstOrder)
	}
	if math.Abs(fiba.THDPercent-5) > 1e-9 {
		t.Errorf("FIBa THD%% = %f, want 5", fiba.THDPercent)
	}
	if fiba.Bus != "FIB" || fiba.Phase != "a" {
		t.Errorf("FIBa bus/phase = %q/%q", fiba.Bus, fiba.Phase)
	}
	if len(s.Groups) != 2 {
		t.Errorf("expected 2 groups, got %d", len(s.Groups))
	}
}

func TestSummary_Flagged(t *testing.T) {
	s := sampleSummary()
	if got := s.Flagged(5); got != 2 {
		t.Errorf("Flagged(5) = %d, want 2 (limit is inclusive)", got)
	}
	if got := s.Flagged(100); got != 0 {
		t.Errorf("Flagged(100) = %d, want 0", got)
	}
}

func TestWriteJSON_ValidJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSummary()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput:\n%s", err, buf.String())
	}
	for _, field := range []string{"version", "input", "fundamental", "frequencies", "nodes", "groups"} {
		if _, ok := parsed[field]; !ok {
			t.Errorf("JSON output missing field %q", field)
		}
	}
}

func TestWriteJSON_EmptyStats(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Build("x.html", 60, nil, nil)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"nodes": []`) || !strings.Contains(out, `"groups": []`) {
		t.Errorf("empty summary should encode empty arrays, got:\n%s", out)
	}
}

func compileSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	sch, err := jsonschema.UnmarshalJSON(strings.NewReader(Schema))
	if err != nil {
		t.Fatalf("failed to parse schema JSON: %v", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", sch); err != nil {
		t.Fatalf("failed to add schema resource: %v", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		t.Fatalf("failed to compile schema: %v", err)
	}
	return compiled
}

func TestWriteJSON_ValidAgainstSchema(t *testing.T) {
	compiled := compileSchema(t)

	for name, s := range map[string]*Summary{
		"sample": sampleSummary(),
		"empty":  Build("x.html", 60, nil, nil),
	} {
		var buf bytes.Buffer
		if err := WriteJSON(&buf, s); err != nil {
			t.Fatalf("%s: WriteJSON failed: %v", name, err)
		}
		inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("%s: failed to parse JSON output: %v", name, err)
		}
		if err := compiled.Validate(inst); err != nil {
			t.Errorf("%s: JSON output does not conform to schema:\n%v", name, err)
		}
	}
}

func TestSchema_RejectsFundamentalHarmonic(t *testing.T) {
	compiled := compileSchema(t)
	doc := `{"version":"0.1.0","input":"x","fundamental":60,"frequencies":[60],
"nodes":[{"node":"FIBa","bus":"FIB","phase":"a","thd":0,"thd_percent":0,"worst_order":1,
"ihd":[{"order":1,"ratio":1,"percent":100}]}],"groups":[]}`
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if err := compiled.Validate(inst); err == nil {
		t.Error("schema should reject harmonic order 1")
	}
}

func TestWriteText_HasNodesAndSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleSummary(), TextOptions{THDLimit: 5}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"FIBa", "FMCa", "5.00%", "Nodes:", "Flagged:", "60, 180, 300, 420"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "FMC") || !strings.Contains(out, "Partial buses:") {
		t.Errorf("text output should list partial buses:\n%s", out)
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Build("x.html", 60, []int{60}, nil), TextOptions{THDLimit: 5}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No harmonic readings found") {
		t.Errorf("expected empty message, got:\n%s", buf.String())
	}
}

// stripANSI removes ANSI escape sequences from text for width measurement.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func TestWriteText_FitsIn80Columns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleSummary(), TextOptions{THDLimit: 5}); err != nil {
		t.Fatal(err)
	}

	const maxWidth = 80
	for i, line := range strings.Split(buf.String(), "\n") {
		plain := stripANSI(line)
		if width := utf8.RuneCountInString(plain); width > maxWidth {
			t.Errorf("line %d exceeds %d columns (%d runes): %q", i+1, maxWidth, width, plain)
		}
	}
}
