// Package scaffold writes a default harmonics configuration file to a
// target directory.
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/unbound-force/harmonics/internal/config"
)

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the directory to write the config file into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites an existing file when true.
	// When false, an existing file is skipped.
	Force bool

	// Version is the harmonics version string to embed in the
	// version marker comment. Set by ldflags at build time.
	// Defaults to "dev" for development builds.
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did.
type Result struct {
	// Created lists files that were written for the first time.
	Created []string

	// Skipped lists files that already existed and were not
	// overwritten (Force was false).
	Skipped []string

	// Overwritten lists files that existed and were replaced
	// (Force was true).
	Overwritten []string
}

// versionMarker returns the comment line that heads every
// generated file.
func versionMarker(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("# generated by harmonics %s\n", version)
}

// Content returns the generated config file: the version marker
// followed by DefaultConfig encoded as YAML.
func Content(version string) ([]byte, error) {
	body, err := config.DefaultConfig().Marshal()
	if err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	return append([]byte(versionMarker(version)), body...), nil
}

// Run writes config.DefaultFile into the target directory.
//
// If the file already exists and opts.Force is false, it is skipped.
// If opts.Force is true, it is overwritten.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	result := &Result{}
	outPath := filepath.Join(opts.TargetDir, config.DefaultFile)

	_, statErr := os.Stat(outPath)
	exists := statErr == nil

	if exists && !opts.Force {
		result.Skipped = append(result.Skipped, config.DefaultFile)
		printSummary(opts.Stdout, result)
		return result, nil
	}

	content, err := Content(opts.Version)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.TargetDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", opts.TargetDir, err)
	}
	if err := os.WriteFile(outPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("creating %s: %w", config.DefaultFile, err)
	}

	if exists {
		result.Overwritten = append(result.Overwritten, config.DefaultFile)
	} else {
		result.Created = append(result.Created, config.DefaultFile)
	}

	printSummary(opts.Stdout, result)

	return result, nil
}

// printSummary writes a human-readable summary of the scaffold
// operation to w.
func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "Harmonics configuration initialized:")

	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit bus_names, then run: harmonics report <file.html>")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
}
