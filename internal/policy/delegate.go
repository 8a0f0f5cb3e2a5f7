package policy

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"oaiagents/internal/model"
)

var (
	ErrDelegateExists   = errors.New("delegate type already registered")
	ErrDelegateNotFound = errors.New("delegate type not found")
	ErrDelegateVersion  = errors.New("delegate payload version mismatch")
)

// Delegate is an externally owned policy object. Wrapper agents hand it
// observations and persist it through its own payload.
type Delegate interface {
	Type() string
	Recurrent() bool
	ObservationKeys() []string
	Predict(obs model.Observation, state State, episodeStart, deterministic bool) (int, State, error)
	Distribution(obs model.Observation) (Distribution, error)
	Payload() model.DelegatePayload
}

// DelegateLoader rebuilds a delegate from its payload. rng drives
// non-deterministic sampling.
type DelegateLoader func(payload model.DelegatePayload, rng *rand.Rand) (Delegate, error)

var delegateRegistry = struct {
	mu sync.RWMutex
	m  map[string]DelegateLoader
}{
	m: make(map[string]DelegateLoader),
}

func init() {
	initializeBuiltInDelegates()
}

func initializeBuiltInDelegates() {
	MustRegisterDelegate(DelegateNetwork, loadNetworkDelegate)
}

func RegisterDelegate(name string, loader DelegateLoader) error {
	if name == "" {
		return errors.New("delegate type is required")
	}
	if loader == nil {
		return errors.New("delegate loader is required")
	}

	delegateRegistry.mu.Lock()
	defer delegateRegistry.mu.Unlock()

	if _, exists := delegateRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrDelegateExists, name)
	}
	delegateRegistry.m[name] = loader
	return nil
}

func MustRegisterDelegate(name string, loader DelegateLoader) {
	if err := RegisterDelegate(name, loader); err != nil {
		panic(err)
	}
}

func ListDelegates() []string {
	delegateRegistry.mu.RLock()
	defer delegateRegistry.mu.RUnlock()

	names := make([]string, 0, len(delegateRegistry.m))
	for name := range delegateRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDelegate resolves payload.DelegateType and rebuilds the delegate.
func LoadDelegate(payload model.DelegatePayload, rng *rand.Rand) (Delegate, error) {
	if payload.SchemaVersion != SupportedSchemaVersion || payload.CodecVersion != SupportedCodecVersion {
		return nil, fmt.Errorf("%w: schema=%d codec=%d", ErrDelegateVersion, payload.SchemaVersion, payload.CodecVersion)
	}
	delegateRegistry.mu.RLock()
	loader, ok := delegateRegistry.m[payload.DelegateType]
	delegateRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDelegateNotFound, payload.DelegateType)
	}
	return loader(payload, rng)
}

func resetDelegateRegistryForTests() {
	delegateRegistry.mu.Lock()
	delegateRegistry.m = make(map[string]DelegateLoader)
	delegateRegistry.mu.Unlock()
	initializeBuiltInDelegates()
}

const DelegateNetwork = "network"

// NetworkDelegate serves a reference network as an external policy object.
type NetworkDelegate struct {
	net Network
	rng *rand.Rand
}

func NewNetworkDelegate(net Network, rng *rand.Rand) *NetworkDelegate {
	return &NetworkDelegate{net: net, rng: rng}
}

func loadNetworkDelegate(payload model.DelegatePayload, rng *rand.Rand) (Delegate, error) {
	if payload.Network == nil {
		return nil, errors.New("network delegate payload has no network spec")
	}
	net, err := NewNetwork(*payload.Network, nil)
	if err != nil {
		return nil, err
	}
	if err := net.LoadStateDict(payload.StateDict); err != nil {
		return nil, err
	}
	return NewNetworkDelegate(net, rng), nil
}

func (d *NetworkDelegate) Type() string    { return DelegateNetwork }
func (d *NetworkDelegate) Recurrent() bool { return d.net.Recurrent() }

func (d *NetworkDelegate) ObservationKeys() []string {
	return append([]string(nil), d.net.Spec().ObservationKeys...)
}

func (d *NetworkDelegate) Predict(obs model.Observation, state State, episodeStart, deterministic bool) (int, State, error) {
	return Step(d.net, obs, state, episodeStart, deterministic, d.rng)
}

func (d *NetworkDelegate) Distribution(obs model.Observation) (Distribution, error) {
	return Evaluate(d.net, obs)
}

func (d *NetworkDelegate) Payload() model.DelegatePayload {
	spec := d.net.Spec()
	return model.DelegatePayload{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
		},
		DelegateType: DelegateNetwork,
		Network:      &spec,
		StateDict:    d.net.StateDict(),
	}
}

// Step runs one forward pass. episodeStart, or a nil state, starts from the
// network's initial state; the returned state is nil for stateless networks.
func Step(net Network, obs model.Observation, state State, episodeStart, deterministic bool, rng *rand.Rand) (int, State, error) {
	features, err := Features(obs, net.Spec().ObservationKeys)
	if err != nil {
		return 0, nil, err
	}
	if episodeStart || state == nil {
		state = net.InitialState()
	}
	dist, next, err := net.Forward(features, state)
	if err != nil {
		return 0, nil, err
	}
	return dist.Choose(deterministic, rng), next, nil
}

// Evaluate returns the distribution a fresh episode would act from.
func Evaluate(net Network, obs model.Observation) (Distribution, error) {
	features, err := Features(obs, net.Spec().ObservationKeys)
	if err != nil {
		return nil, err
	}
	dist, _, err := net.Forward(features, net.InitialState())
	return dist, err
}
