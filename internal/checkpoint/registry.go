// Package checkpoint persists agents and trainers and rebuilds them through a
// closed registry of agent type tags.
package checkpoint

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/model"
	"oaiagents/internal/policy"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrTypeExists      = errors.New("agent type already registered")
	ErrVersionMismatch = errors.New("registry version mismatch")
)

// Payload says what a type stores next to its record at path+DelegateSuffix.
type Payload int

const (
	PayloadNone Payload = iota
	// PayloadDelegate is an external policy object's own payload.
	PayloadDelegate
	// PayloadWorker is a complete checkpoint of a nested agent.
	PayloadWorker
)

// Restore is the input to a constructor: the validated record with merged
// runtime args, plus the second payload when the type has one.
type Restore struct {
	Record   model.CheckpointRecord
	Delegate *model.DelegatePayload
	Worker   agent.Agent
	Rand     *rand.Rand
	Subtasks agent.SubtaskProvider
}

type Constructor func(in Restore) (agent.Agent, error)

type TypeSpec struct {
	Tag           string
	Payload       Payload
	Construct     Constructor
	SchemaVersion int
	CodecVersion  int
}

var typeRegistry = struct {
	mu sync.RWMutex
	m  map[string]TypeSpec
}{
	m: make(map[string]TypeSpec),
}

func init() {
	initializeBuiltInTypes()
}

func initializeBuiltInTypes() {
	MustRegister(TypeSpec{Tag: agent.TypePolicy, Construct: constructPolicy})
	MustRegister(TypeSpec{Tag: agent.TypeDelegate, Payload: PayloadDelegate, Construct: constructDelegate})
	MustRegister(TypeSpec{Tag: agent.TypeDelegateRecurrent, Payload: PayloadDelegate, Construct: constructRecurrentDelegate})
	MustRegister(TypeSpec{Tag: agent.TypeHierarchical, Payload: PayloadWorker, Construct: constructHierarchical})
	MustRegister(TypeSpec{Tag: agent.TypeScripted, Construct: constructScripted})
}

func Register(spec TypeSpec) error {
	if spec.Tag == "" {
		return errors.New("agent type tag is required")
	}
	if spec.Construct == nil {
		return errors.New("agent constructor is required")
	}
	if spec.SchemaVersion == 0 && spec.CodecVersion == 0 {
		spec.SchemaVersion = SupportedSchemaVersion
		spec.CodecVersion = SupportedCodecVersion
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, spec.SchemaVersion, spec.CodecVersion)
	}

	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()

	if _, exists := typeRegistry.m[spec.Tag]; exists {
		return fmt.Errorf("%w: %s", ErrTypeExists, spec.Tag)
	}
	typeRegistry.m[spec.Tag] = spec
	return nil
}

func MustRegister(spec TypeSpec) {
	if err := Register(spec); err != nil {
		panic(err)
	}
}

func Lookup(tag string) (TypeSpec, error) {
	typeRegistry.mu.RLock()
	spec, ok := typeRegistry.m[tag]
	typeRegistry.mu.RUnlock()
	if !ok {
		return TypeSpec{}, fmt.Errorf("%w: %q", ErrUnknownAgentType, tag)
	}
	return spec, nil
}

func ListTypes() []string {
	typeRegistry.mu.RLock()
	defer typeRegistry.mu.RUnlock()

	tags := make([]string, 0, len(typeRegistry.m))
	for tag := range typeRegistry.m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func resetRegistryForTests() {
	typeRegistry.mu.Lock()
	typeRegistry.m = make(map[string]TypeSpec)
	typeRegistry.mu.Unlock()
	initializeBuiltInTypes()
}

func constructPolicy(in Restore) (agent.Agent, error) {
	params := in.Record.ConstParams
	if params.Network == nil {
		return nil, corrupt("policy agent %s has no network spec", params.Name)
	}
	net, err := policy.NewNetwork(*params.Network, nil)
	if err != nil {
		return nil, corrupt("rebuild network: %v", err)
	}
	if err := net.LoadStateDict(in.Record.StateDict); err != nil {
		return nil, corrupt("load weights: %v", err)
	}
	return agent.NewPolicyAgent(params.Name, params.EncodingFn, net, in.Rand)
}

func loadDelegate(in Restore) (policy.Delegate, error) {
	if in.Delegate == nil {
		return nil, corrupt("missing delegate payload")
	}
	d, err := policy.LoadDelegate(*in.Delegate, in.Rand)
	if err != nil {
		return nil, corrupt("load delegate: %v", err)
	}
	return d, nil
}

func constructDelegate(in Restore) (agent.Agent, error) {
	d, err := loadDelegate(in)
	if err != nil {
		return nil, err
	}
	return agent.NewDelegateAgent(in.Record.ConstParams.Name, in.Record.ConstParams.EncodingFn, d)
}

func constructRecurrentDelegate(in Restore) (agent.Agent, error) {
	d, err := loadDelegate(in)
	if err != nil {
		return nil, err
	}
	return agent.NewRecurrentDelegateAgent(in.Record.ConstParams.Name, in.Record.ConstParams.EncodingFn, d)
}

func constructHierarchical(in Restore) (agent.Agent, error) {
	if in.Worker == nil {
		return nil, corrupt("missing worker checkpoint")
	}
	params := in.Record.ConstParams
	h, err := agent.NewHierarchicalAgent(params.Name, params.EncodingFn, in.Worker, in.Subtasks)
	if err != nil {
		return nil, err
	}
	if err := h.SetCurrentSubtask(params.Subtask); err != nil {
		return nil, corrupt("%v", err)
	}
	return h, nil
}

func constructScripted(in Restore) (agent.Agent, error) {
	params := in.Record.ConstParams
	switch params.Action {
	case agent.ScriptedRandom:
		return agent.NewRandomAgent(params.Name, in.Rand)
	case agent.ScriptedRandomDirection:
		return agent.NewRandomDirectionAgent(params.Name, in.Rand)
	}
	act, err := action.FromName(params.Action)
	if err != nil {
		return nil, corrupt("scripted action: %v", err)
	}
	return agent.NewScriptedAgent(params.Name, act)
}
