// Package driver runs a registered dataset parser over a source file and
// collects its output. It is the Go rendition of the simple dataset driver
// layer: open the stream, build the parser for the configured dataset,
// process to exhaustion, hand the particles and warnings to the consumer.
package driver

import (
	"fmt"
	"io"
	"os"

	"fuelcell_parser/internal/dcl"
	"fuelcell_parser/internal/registry"
)

// Result holds everything one parse run produced: the ordered particle buffer
// and the per-line warnings, both in input order.
type Result struct {
	Dataset   string
	Particles []*dcl.Particle
	Warnings  []dcl.Warning
}

// Driver dispatches input streams to the parser registered for one dataset.
type Driver struct {
	dataset string
	reg     *registry.Registry
}

// New creates a driver for the named dataset using the default registry.
func New(dataset string) *Driver {
	return NewWithRegistry(dataset, registry.Default())
}

// NewWithRegistry creates a driver bound to a specific registry.
func NewWithRegistry(dataset string, reg *registry.Registry) *Driver {
	return &Driver{dataset: dataset, reg: reg}
}

// Dataset returns the dataset name this driver dispatches to.
func (d *Driver) Dataset() string { return d.dataset }

// ProcessFile opens path, parses it, and returns the result. The file handle
// is closed on all exit paths; the parser itself never closes it.
func (d *Driver) ProcessFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()

	return d.Process(f)
}

// Process parses an already open stream. A missing parser registration or a
// parser construction failure is returned before any line is consumed.
func (d *Driver) Process(r io.Reader) (*Result, error) {
	res := &Result{Dataset: d.dataset}

	parser, err := d.reg.Build(d.dataset, r, func(w dcl.Warning) {
		res.Warnings = append(res.Warnings, w)
	})
	if err != nil {
		return nil, err
	}

	if err := parser.ParseFile(); err != nil {
		return nil, fmt.Errorf("parse stream: %w", err)
	}

	res.Particles = parser.Records()
	return res, nil
}
