package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/unbound-force/harmonics/internal/harmonic"
	"github.com/unbound-force/harmonics/internal/model"
)

// Workbook sheet names.
const (
	VoltageSheet    = "Voltages"
	DistortionSheet = "Distortion"
)

// WriteWorkbook writes dir/<input base>.xlsx with the voltage pivot
// on one sheet and per-node THD and IHD percentages on another.
func WriteWorkbook(p *Pivot, stats map[model.NodeName]model.HarmonicStats, dir, inputPath string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating workbook directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, BaseName(inputPath)+".xlsx")

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", VoltageSheet); err != nil {
		return "", fmt.Errorf("naming voltage sheet: %w", err)
	}
	if _, err := f.NewSheet(DistortionSheet); err != nil {
		return "", fmt.Errorf("adding distortion sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("creating header style: %w", err)
	}

	if err := writeVoltageSheet(f, p, bold); err != nil {
		return "", err
	}
	if err := writeDistortionSheet(f, stats, bold); err != nil {
		return "", err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}

func writeVoltageSheet(f *excelize.File, p *Pivot, headerStyle int) error {
	freqs := p.Frequencies()
	header := []interface{}{"Node"}
	for _, fr := range freqs {
		header = append(header, fmt.Sprintf("%d Hz", fr))
	}
	if err := setRow(f, VoltageSheet, 1, header); err != nil {
		return err
	}
	for i, n := range p.Nodes {
		row := []interface{}{string(n)}
		for _, fr := range freqs {
			row = append(row, p.Columns[fr][i])
		}
		if err := setRow(f, VoltageSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetRowStyle(VoltageSheet, 1, 1, headerStyle)
}

func writeDistortionSheet(f *excelize.File, stats map[model.NodeName]model.HarmonicStats, headerStyle int) error {
	orders := harmonic.Orders(stats)
	header := []interface{}{"Node", "THD (%)"}
	for _, h := range orders {
		header = append(header, fmt.Sprintf("IHD %d (%%)", h))
	}
	if err := setRow(f, DistortionSheet, 1, header); err != nil {
		return err
	}
	for i, n := range harmonic.Nodes(stats) {
		st := stats[n]
		row := []interface{}{string(n), st.THD * 100}
		for _, h := range orders {
			if v, ok := st.IHD[h]; ok {
				row = append(row, v*100)
			} else {
				row = append(row, nil)
			}
		}
		if err := setRow(f, DistortionSheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetRowStyle(DistortionSheet, 1, 1, headerStyle)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}
