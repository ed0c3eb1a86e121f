// Package config holds the harmonics run configuration: which buses
// to extract, how the report is laid out, and the fixed chart and
// export settings. Values come from DefaultConfig, an optional YAML
// file and HARMONICS_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working
// directory when no --config flag is given.
const DefaultFile = ".harmonics.yaml"

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "HARMONICS"

// Config is the complete harmonics configuration.
type Config struct {
	// BusNames lists the buses to extract. Each expands to three
	// nodes with suffixes a, b and c.
	BusNames []string `yaml:"bus_names" split_words:"true" validate:"required,min=1,dive,required"`

	// Fundamental is the base frequency in Hz.
	Fundamental int `yaml:"fundamental" split_words:"true" validate:"gt=0"`

	Extract ExtractConfig `yaml:"extract" split_words:"true"`
	Chart   ChartConfig   `yaml:"chart" split_words:"true"`
	Export  ExportConfig  `yaml:"export" split_words:"true"`
	Report  ReportConfig  `yaml:"report" split_words:"true"`
}

// ExtractConfig describes where node voltages live in the report.
type ExtractConfig struct {
	// TableID is the id attribute of each node voltage table.
	TableID string `yaml:"table_id" split_words:"true" validate:"required"`

	// NodeColumn and VoltageColumn are the header labels searched
	// for in the header row.
	NodeColumn    string `yaml:"node_column" split_words:"true" validate:"required"`
	VoltageColumn string `yaml:"voltage_column" split_words:"true" validate:"required"`

	// HeaderRow is the zero-based row holding the column labels.
	HeaderRow int `yaml:"header_row" split_words:"true" validate:"gte=0"`
}

// ChartConfig holds the fixed layout of the distortion bar charts.
type ChartConfig struct {
	OutputDir   string `yaml:"output_dir" split_words:"true" validate:"required"`
	TitlePrefix string `yaml:"title_prefix" split_words:"true"`
	Subtitle    string `yaml:"subtitle" split_words:"true"`
	XLabel      string `yaml:"x_label" split_words:"true"`
	YLabel      string `yaml:"y_label" split_words:"true"`

	// AxisMin and AxisMax bound the y axis, in percent.
	AxisMin float64 `yaml:"axis_min" split_words:"true" validate:"gte=0"`
	AxisMax float64 `yaml:"axis_max" split_words:"true" validate:"gtfield=AxisMin"`

	// MajorStep and MinorStep are the y gridline spacings, in percent.
	MajorStep float64 `yaml:"major_step" split_words:"true" validate:"gt=0"`
	MinorStep float64 `yaml:"minor_step" split_words:"true" validate:"gt=0,ltefield=MajorStep"`

	// BarWidth is the width of one bar in x-axis units, measured
	// against the drawn data area. Three bars must fit in one unit.
	BarWidth float64 `yaml:"bar_width" split_words:"true" validate:"gt=0,lte=0.33"`

	WidthIn  float64 `yaml:"width_in" split_words:"true" validate:"gt=0"`
	HeightIn float64 `yaml:"height_in" split_words:"true" validate:"gt=0"`
	DPI      int     `yaml:"dpi" split_words:"true" validate:"gt=0"`
}

// ExportConfig controls the tabular exports.
type ExportConfig struct {
	CSVDir string `yaml:"csv_dir" split_words:"true" validate:"required"`

	// NodeHeader labels the node-name column in the header row.
	NodeHeader string `yaml:"node_header" split_words:"true"`

	// XLSX also writes an Excel workbook next to the CSV.
	XLSX bool `yaml:"xlsx" split_words:"true"`
}

// ReportConfig controls the terminal summary.
type ReportConfig struct {
	// THDLimit is the THD percentage at or above which a node is
	// flagged.
	THDLimit float64 `yaml:"thd_limit" split_words:"true" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		BusNames:    []string{"East_Grand"},
		Fundamental: 60,
		Extract: ExtractConfig{
			TableID:       "NodeVoltagesTable",
			NodeColumn:    "Node",
			VoltageColumn: "Module (V)",
			HeaderRow:     1,
		},
		Chart: ChartConfig{
			OutputDir:   "histograms",
			TitlePrefix: "PCEP TPS1 Voltage harmonic Distortion",
			Subtitle:    "Cal001 Train Config C FMC-SJB Out",
			XLabel:      "Harmonic",
			YLabel:      "% of 115 kV Nominal Voltage (%)",
			AxisMin:     0,
			AxisMax:     1.5,
			MajorStep:   0.3,
			MinorStep:   0.1,
			BarWidth:    0.2,
			WidthIn:     12,
			HeightIn:    6,
			DPI:         300,
		},
		Export: ExportConfig{
			CSVDir:     "voltage_csv_output",
			NodeHeader: "0",
		},
		Report: ReportConfig{
			THDLimit: 5,
		},
	}
}

// Load reads a YAML file and merges it over DefaultConfig. Unknown
// keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional loads path when it exists and falls back to
// DefaultConfig otherwise. An explicitly named file must exist.
func LoadOptional(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	return Load(path)
}

// ApplyEnv overrides fields from HARMONICS_* environment variables
// (e.g. HARMONICS_BUS_NAMES=FIB,FMC or HARMONICS_CHART_DPI=150).
// Unset variables leave the current value in place.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("applying environment overrides: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and reports every violated
// constraint in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config:\n  %s", strings.Join(msgs, "\n  "))
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
