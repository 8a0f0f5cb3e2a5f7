// Package policy holds the reference policy networks, their action
// distributions, and the delegate abstraction for externally owned policies.
package policy

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"oaiagents/internal/model"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrArchitectureExists   = errors.New("architecture already registered")
	ErrArchitectureNotFound = errors.New("architecture not found")
	ErrShapeMismatch        = errors.New("parameter shape mismatch")
)

// State is a recurrent hidden state. Stateless networks use nil.
type State []float64

func (s State) Clone() State {
	if s == nil {
		return nil
	}
	return append(State(nil), s...)
}

// Network maps an observation feature vector, plus an optional hidden state,
// to an action distribution.
type Network interface {
	Spec() model.NetworkSpec
	Recurrent() bool
	// InitialState is the state used when an episode starts.
	InitialState() State
	Forward(features []float64, state State) (Distribution, State, error)
	StateDict() model.StateDict
	LoadStateDict(model.StateDict) error
}

// ArchitectureFactory builds a network with parameters drawn from rng. A nil
// rng leaves parameters zeroed, which is what loaders want before
// LoadStateDict.
type ArchitectureFactory func(spec model.NetworkSpec, rng *rand.Rand) (Network, error)

var architectureRegistry = struct {
	mu sync.RWMutex
	m  map[string]ArchitectureFactory
}{
	m: make(map[string]ArchitectureFactory),
}

func init() {
	initializeBuiltInArchitectures()
}

func initializeBuiltInArchitectures() {
	MustRegisterArchitecture(ArchitectureLinear, newLinear)
	MustRegisterArchitecture(ArchitectureElman, newElman)
}

func RegisterArchitecture(name string, factory ArchitectureFactory) error {
	if name == "" {
		return errors.New("architecture name is required")
	}
	if factory == nil {
		return errors.New("architecture factory is required")
	}

	architectureRegistry.mu.Lock()
	defer architectureRegistry.mu.Unlock()

	if _, exists := architectureRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrArchitectureExists, name)
	}
	architectureRegistry.m[name] = factory
	return nil
}

func MustRegisterArchitecture(name string, factory ArchitectureFactory) {
	if err := RegisterArchitecture(name, factory); err != nil {
		panic(err)
	}
}

func ListArchitectures() []string {
	architectureRegistry.mu.RLock()
	defer architectureRegistry.mu.RUnlock()

	names := make([]string, 0, len(architectureRegistry.m))
	for name := range architectureRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewNetwork builds the registered architecture named by spec.
func NewNetwork(spec model.NetworkSpec, rng *rand.Rand) (Network, error) {
	architectureRegistry.mu.RLock()
	factory, ok := architectureRegistry.m[spec.Architecture]
	architectureRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArchitectureNotFound, spec.Architecture)
	}
	if spec.Inputs <= 0 || spec.Outputs <= 0 {
		return nil, fmt.Errorf("network %s needs positive inputs and outputs: inputs=%d outputs=%d",
			spec.Architecture, spec.Inputs, spec.Outputs)
	}
	return factory(spec, rng)
}

// Features concatenates the observation components named by keys, in order.
func Features(obs model.Observation, keys []string) ([]float64, error) {
	var out []float64
	for _, key := range keys {
		v, ok := obs[key]
		if !ok {
			return nil, fmt.Errorf("observation missing %q", key)
		}
		out = append(out, v...)
	}
	return out, nil
}

func resetArchitectureRegistryForTests() {
	architectureRegistry.mu.Lock()
	architectureRegistry.m = make(map[string]ArchitectureFactory)
	architectureRegistry.mu.Unlock()
	initializeBuiltInArchitectures()
}

type param struct {
	name  string
	shape []int
	data  []float64
}

func newParam(name string, rng *rand.Rand, fanIn int, shape ...int) *param {
	size := 1
	for _, d := range shape {
		size *= d
	}
	p := &param{name: name, shape: shape, data: make([]float64, size)}
	if rng != nil && fanIn > 0 {
		scale := 1 / sqrt(float64(fanIn))
		for i := range p.data {
			p.data[i] = rng.NormFloat64() * scale
		}
	}
	return p
}

func stateDictOf(params ...*param) model.StateDict {
	out := make(model.StateDict, len(params))
	for _, p := range params {
		out[p.name] = model.Tensor{
			Shape: append([]int(nil), p.shape...),
			Data:  append([]float64(nil), p.data...),
		}
	}
	return out
}

func loadInto(dict model.StateDict, params ...*param) error {
	for _, p := range params {
		tensor, ok := dict[p.name]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrShapeMismatch, p.name)
		}
		if !sameShape(tensor.Shape, p.shape) || len(tensor.Data) != len(p.data) {
			return fmt.Errorf("%w: %s got=%v want=%v", ErrShapeMismatch, p.name, tensor.Shape, p.shape)
		}
	}
	for _, p := range params {
		copy(p.data, dict[p.name].Data)
	}
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// affine computes W·x + b for a row-major W of shape [rows, cols].
func affine(w, b []float64, x []float64, rows, cols int) []float64 {
	out := make([]float64, rows)
	for r := 0; r < rows; r++ {
		total := b[r]
		row := w[r*cols : (r+1)*cols]
		for c, xv := range x {
			total += row[c] * xv
		}
		out[r] = total
	}
	return out
}
