// Package registry provides a dataset parser registry for dispatching input
// streams to the parser registered for a dataset.
package registry

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"fuelcell_parser/internal/dcl"
)

// Parser is the contract every dataset parser satisfies: consume the input
// stream to exhaustion, then expose the ordered particle buffer. A parser
// never closes the underlying stream.
type Parser interface {
	// ParseFile scans the stream line by line. Only stream I/O errors are
	// returned; malformed lines are reported through the parser's warning
	// callback and skipped.
	ParseFile() error

	// Records returns the particles emitted so far, in input line order.
	Records() []*dcl.Particle
}

// Builder constructs a parser for one input stream. warn receives the
// per-line diagnostics; nil discards them.
type Builder func(r io.Reader, warn dcl.WarningFunc) (Parser, error)

// Registry maps dataset names to parser builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Global default registry.
var defaultRegistry = New()

// Default returns the global registry instance.
func Default() *Registry { return defaultRegistry }

// Register adds a builder to the default registry.
// Called during init() in each parser package.
func Register(dataset string, b Builder) {
	defaultRegistry.Register(dataset, b)
}

// Register adds a builder for a dataset name. Registering the same dataset
// twice is a programming error and panics at init time.
func (r *Registry) Register(dataset string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.builders[dataset]; dup {
		panic(fmt.Sprintf("registry: duplicate dataset %q", dataset))
	}
	r.builders[dataset] = b
}

// Lookup returns the builder registered for a dataset name.
func (r *Registry) Lookup(dataset string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builders[dataset]
	return b, ok
}

// Build constructs a parser for the named dataset, or returns an error when
// no parser is registered for it.
func (r *Registry) Build(dataset string, in io.Reader, warn dcl.WarningFunc) (Parser, error) {
	b, ok := r.Lookup(dataset)
	if !ok {
		return nil, fmt.Errorf("registry: no parser registered for dataset %q", dataset)
	}
	return b(in, warn)
}

// Datasets returns all registered dataset names, sorted.
func (r *Registry) Datasets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
