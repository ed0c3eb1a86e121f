package model

import (
	"errors"
	"strconv"
	"testing"
)

func TestNodeNames_ExpandsPhases(t *testing.T) {
	got := NodeNames([]string{"FIB", "East_Grand"})
	want := []NodeName{"FIBa", "FIBb", "FIBc", "East_Granda", "East_Grandb", "East_Grandc"}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNodeName_BusAndPhase(t *testing.T) {
	n := NodeName("DUA_115b")
	if n.Bus() != "DUA_115" {
		t.Errorf("Bus() = %q, want %q", n.Bus(), "DUA_115")
	}
	if n.Phase() != PhaseB {
		t.Errorf("Phase() = %q, want %q", n.Phase(), PhaseB)
	}
	if !n.Valid() {
		t.Error("expected DUA_115b to be valid")
	}
}

func TestNodeName_Invalid(t *testing.T) {
	for _, n := range []NodeName{"", "a", "FIBx", "FIB1"} {
		if n.Valid() {
			t.Errorf("expected %q to be invalid", n)
		}
	}
}

func TestPhase_Label(t *testing.T) {
	if got := PhaseC.Label(); got != "Phase C" {
		t.Errorf("Label() = %q, want %q", got, "Phase C")
	}
}

func TestReading_Volts(t *testing.T) {
	v, err := Reading{Node: "FIBa", Voltage: " 66395.3 "}.Volts()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 66395.3 {
		t.Errorf("Volts() = %v, want 66395.3", v)
	}
}

func TestReading_VoltsNotANumber(t *testing.T) {
	_, err := Reading{Node: "FIBa", Voltage: "n/a"}.Volts()
	if err == nil {
		t.Fatal("expected error for non-numeric voltage")
	}
	var ve *VoltageError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *VoltageError, got %T", err)
	}
	if ve.Node != "FIBa" {
		t.Errorf("error node = %q, want FIBa", ve.Node)
	}
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Errorf("expected wrapped strconv.ErrSyntax, got %v", err)
	}
}

func TestNewFrequencyTable_SortsAscending(t *testing.T) {
	ft := NewFrequencyTable([]FrequencySet{
		{Frequency: 300},
		{Frequency: 60},
		{Frequency: 180},
	})
	got := ft.Frequencies()
	want := []int{60, 180, 300}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Frequencies() = %v, want %v", got, want)
		}
	}
}

func TestFrequencyTable_ReadingsAreCopies(t *testing.T) {
	ft := NewFrequencyTable([]FrequencySet{
		{Frequency: 60, Readings: []Reading{{Node: "FIBa", Voltage: "100"}}},
	})
	r, ok := ft.Readings(60)
	if !ok {
		t.Fatal("expected readings at 60 Hz")
	}
	r[0].Voltage = "mutated"

	again, _ := ft.Readings(60)
	if again[0].Voltage != "100" {
		t.Errorf("table was mutated through returned slice: %q", again[0].Voltage)
	}
	if _, ok := ft.Readings(120); ok {
		t.Error("expected no readings at 120 Hz")
	}
}

func TestHarmonicStats_Orders(t *testing.T) {
	s := HarmonicStats{IHD: map[int]float64{11: 0.1, 3: 0.2, 5: 0.3}}
	got := s.Orders()
	want := []int{3, 5, 11}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Orders() = %v, want %v", got, want)
		}
	}
}

func TestPhaseGroup_Member(t *testing.T) {
	g := PhaseGroup{Bus: "FMC", Members: []NodeName{"FMCa", "FMCc"}}
	if m, ok := g.Member(PhaseC); !ok || m != "FMCc" {
		t.Errorf("Member(c) = %q, %v", m, ok)
	}
	if _, ok := g.Member(PhaseB); ok {
		t.Error("expected phase b to be absent")
	}
}
