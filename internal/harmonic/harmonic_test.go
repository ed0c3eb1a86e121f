package harmonic

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/unbound-force/harmonics/internal/model"
)

func table(sets map[int]map[model.NodeName]string) *model.FrequencyTable {
	var fs []model.FrequencySet
	for f, rows := range sets {
		set := model.FrequencySet{Frequency: f}
		for n, v := range rows {
			set.Readings = append(set.Readings, model.Reading{Node: n, Voltage: v})
		}
		fs = append(fs, set)
	}
	return model.NewFrequencyTable(fs)
}

func TestCompute_SingleHarmonic(t *testing.T) {
	ft := table(map[int]map[model.NodeName]string{
		60:  {"FIBa": "100"},
		180: {"FIBa": "5"},
	})
	stats, err := Compute(ft, DefaultFundamental)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	st, ok := stats["FIBa"]
	if !ok {
		t.Fatal("missing stats for FIBa")
	}
	if math.Abs(st.IHD[3]-0.05) > 1e-12 {
		t.Errorf("IHD[3] = %f, want 0.05", st.IHD[3])
	}
	if math.Abs(st.THD-0.05) > 1e-12 {
		t.Errorf("THD = %f, want 0.05", st.THD)
	}
}

func TestCompute_MultipleHarmonics(t *testing.T) {
	// sqrt(3^2 + 4^2) = 5, so THD = 5/100.
	ft := table(map[int]map[model.NodeName]string{
		60:  {"FIBa": "100", "FIBb": "200"},
		180: {"FIBa": "3", "FIBb": "2"},
		300: {"FIBa": "4"},
	})
	stats, err := Compute(ft, DefaultFundamental)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := stats["FIBa"].THD; math.Abs(got-0.05) > 1e-12 {
		t.Errorf("FIBa THD = %f, want 0.05", got)
	}
	if got := stats["FIBa"].IHD[5]; math.Abs(got-0.04) > 1e-12 {
		t.Errorf("FIBa IHD[5] = %f, want 0.04", got)
	}
	if got := stats["FIBb"].THD; math.Abs(got-0.01) > 1e-12 {
		t.Errorf("FIBb THD = %f, want 0.01", got)
	}
	if _, ok := stats["FIBb"].IHD[5]; ok {
		t.Error("FIBb has no 300 Hz reading and must not have IHD[5]")
	}
}

func TestCompute_FundamentalOnlyNodesOmitted(t *testing.T) {
	ft := table(map[int]map[model.NodeName]string{
		60:  {"FIBa": "100", "FMCa": "100"},
		180: {"FIBa": "1"},
	})
	stats, err := Compute(ft, DefaultFundamental)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, ok := stats["FMCa"]; ok {
		t.Error("node without harmonic readings should have no stats")
	}
}

func TestCompute_NeverContainsOrderOne(t *testing.T) {
	ft := table(map[int]map[model.NodeName]string{
		60:  {"FIBa": "100", "FIBb": "90"},
		120: {"FIBa": "1", "FIBb": "2"},
		660: {"FIBa": "3", "FIBb": "4"},
	})
	stats, err := Compute(ft, DefaultFundamental)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for n, st := range stats {
		if _, ok := st.IHD[1]; ok {
			t.Errorf("%s: IHD contains the fundamental", n)
		}
	}
}

func TestCompute_Errors(t *testing.T) {
	tests := []struct {
		name string
		sets map[int]map[model.NodeName]string
		want error
	}{
		{
			name: "no fundamental",
			sets: map[int]map[model.NodeName]string{180: {"FIBa": "1"}},
			want: ErrNoFundamental,
		},
		{
			name: "not a harmonic",
			sets: map[int]map[model.NodeName]string{60: {"FIBa": "100"}, 150: {"FIBa": "1"}},
			want: ErrNotHarmonic,
		},
		{
			name: "zero frequency",
			sets: map[int]map[model.NodeName]string{60: {"FIBa": "100"}, 0: {"FIBa": "1"}},
			want: ErrNotHarmonic,
		},
		{
			name: "unknown node",
			sets: map[int]map[model.NodeName]string{60: {"FIBa": "100"}, 180: {"FIBb": "1"}},
			want: ErrUnknownNode,
		},
		{
			name: "zero fundamental",
			sets: map[int]map[model.NodeName]string{60: {"FIBa": "0"}, 180: {"FIBa": "1"}},
			want: ErrZeroFundamental,
		},
		{
			name: "bad voltage",
			sets: map[int]map[model.NodeName]string{60: {"FIBa": "100"}, 180: {"FIBa": "1,2"}},
			want: strconv.ErrSyntax,
		},
		{
			name: "bad fundamental voltage",
			sets: map[int]map[model.NodeName]string{60: {"FIBa": "?"}, 180: {"FIBa": "1"}},
			want: strconv.ErrSyntax,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(table(tt.sets), DefaultFundamental)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompute_DuplicateReadingsRejected(t *testing.T) {
	tests := []struct {
		name string
		sets []model.FrequencySet
	}{
		{
			name: "fundamental",
			sets: []model.FrequencySet{
				{Frequency: 60, Readings: []model.Reading{{Node: "FIBa", Voltage: "100"}, {Node: "FIBa", Voltage: "50"}}},
				{Frequency: 180, Readings: []model.Reading{{Node: "FIBa", Voltage: "5"}}},
			},
		},
		{
			name: "harmonic",
			sets: []model.FrequencySet{
				{Frequency: 60, Readings: []model.Reading{{Node: "FIBa", Voltage: "100"}}},
				{Frequency: 180, Readings: []model.Reading{{Node: "FIBa", Voltage: "5"}, {Node: "FIBa", Voltage: "3"}}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(model.NewFrequencyTable(tt.sets), DefaultFundamental)
			if !errors.Is(err, ErrDuplicateNode) {
				t.Errorf("error = %v, want ErrDuplicateNode", err)
			}
		})
	}
}

func TestCompute_VoltageErrorType(t *testing.T) {
	ft := table(map[int]map[model.NodeName]string{60: {"FIBa": "100"}, 180: {"FIBa": "abc"}})
	_, err := Compute(ft, DefaultFundamental)
	var ve *model.VoltageError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *model.VoltageError, got %v", err)
	}
	if ve.Node != "FIBa" || ve.Text != "abc" {
		t.Errorf("unexpected error fields: %+v", ve)
	}
}

func TestCompute_OtherFundamental(t *testing.T) {
	ft := table(map[int]map[model.NodeName]string{
		50:  {"FIBa": "100"},
		250: {"FIBa": "2"},
	})
	stats, err := Compute(ft, 50)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := stats["FIBa"].IHD[5]; math.Abs(got-0.02) > 1e-12 {
		t.Errorf("IHD[5] = %f, want 0.02", got)
	}
}

func TestCompute_InvalidFundamental(t *testing.T) {
	if _, err := Compute(table(nil), 0); err == nil {
		t.Fatal("expected error for zero fundamental")
	}
}

func TestOrders_Union(t *testing.T) {
	stats := map[model.NodeName]model.HarmonicStats{
		"FIBa": {IHD: map[int]float64{3: 0, 5: 0}},
		"FIBb": {IHD: map[int]float64{7: 0, 3: 0}},
	}
	got := Orders(stats)
	want := []int{3, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("Orders = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Orders = %v, want %v", got, want)
		}
	}
}

func TestTHDFromIHD(t *testing.T) {
	got := THDFromIHD(map[int]float64{3: 0.03, 5: 0.04})
	if math.Abs(got-0.05) > 1e-12 {
		t.Errorf("THDFromIHD = %f, want 0.05", got)
	}
	if THDFromIHD(nil) != 0 {
		t.Error("THDFromIHD(nil) should be 0")
	}
}
