// Package encoding holds the encoding functions that turn a raw kitchen
// state and a seat index into a policy observation.
package encoding

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"oaiagents/internal/model"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrEncodingExists   = errors.New("encoding already registered")
	ErrEncodingNotFound = errors.New("encoding not found")
	ErrVersionMismatch  = errors.New("registry version mismatch")
	ErrIncompatible     = errors.New("encoding incompatible with layout")
	ErrSeat             = errors.New("seat out of range")
)

// Func is a pure transform from raw state and seat to an observation.
type Func func(state model.State, seat int) (model.Observation, error)

type CompatibilityFn func(layout string) error

type Spec struct {
	Name          string
	Func          Func
	Size          int
	SchemaVersion int
	CodecVersion  int
	Compatible    CompatibilityFn
}

type registeredEncoding struct {
	fn            Func
	size          int
	schemaVersion int
	codecVersion  int
	compatible    CompatibilityFn
}

var encodingRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredEncoding
}{
	m: make(map[string]registeredEncoding),
}

func init() {
	initializeBuiltInEncodings()
}

func initializeBuiltInEncodings() {
	MustRegister(Spec{Name: Flat, Func: encodeFlat, Size: FlatSize})
	MustRegister(Spec{Name: Relative, Func: encodeRelative, Size: FlatSize})
}

func Register(spec Spec) error {
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		return errors.New("encoding name is required")
	}
	if spec.Func == nil {
		return errors.New("encoding function is required")
	}
	if spec.SchemaVersion == 0 && spec.CodecVersion == 0 {
		spec.SchemaVersion = SupportedSchemaVersion
		spec.CodecVersion = SupportedCodecVersion
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, spec.SchemaVersion, spec.CodecVersion)
	}

	encodingRegistry.mu.Lock()
	defer encodingRegistry.mu.Unlock()

	if _, exists := encodingRegistry.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrEncodingExists, spec.Name)
	}
	encodingRegistry.m[spec.Name] = registeredEncoding{
		fn:            spec.Func,
		size:          spec.Size,
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
		compatible:    spec.Compatible,
	}
	return nil
}

func MustRegister(spec Spec) {
	if err := Register(spec); err != nil {
		panic(err)
	}
}

// Resolve returns the encoding registered under name.
func Resolve(name string) (Func, error) {
	entry, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return entry.fn, nil
}

// ResolveForLayout is Resolve plus the encoding's layout compatibility check.
func ResolveForLayout(name, layout string) (Func, error) {
	entry, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if entry.compatible != nil {
		if err := entry.compatible(layout); err != nil {
			return nil, fmt.Errorf("%w: encoding=%s layout=%s: %v", ErrIncompatible, name, layout, err)
		}
	}
	return entry.fn, nil
}

// Size is the length of the agent_obs vector the encoding produces.
func Size(name string) (int, error) {
	entry, err := lookup(name)
	if err != nil {
		return 0, err
	}
	return entry.size, nil
}

func List() []string {
	encodingRegistry.mu.RLock()
	defer encodingRegistry.mu.RUnlock()

	names := make([]string, 0, len(encodingRegistry.m))
	for n := range encodingRegistry.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (registeredEncoding, error) {
	encodingRegistry.mu.RLock()
	entry, ok := encodingRegistry.m[strings.TrimSpace(name)]
	encodingRegistry.mu.RUnlock()
	if !ok {
		return registeredEncoding{}, fmt.Errorf("%w: %s", ErrEncodingNotFound, name)
	}
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return registeredEncoding{}, fmt.Errorf("%w: %s", ErrVersionMismatch, name)
	}
	return entry, nil
}

func resetRegistryForTests() {
	encodingRegistry.mu.Lock()
	encodingRegistry.m = make(map[string]registeredEncoding)
	encodingRegistry.mu.Unlock()
	initializeBuiltInEncodings()
}
