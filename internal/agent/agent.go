// Package agent is the uniform predict contract over the policy variants a
// session can drive: in-process networks, wrapped delegate objects,
// hierarchical subtask controllers, and scripted teammates.
package agent

import (
	"errors"
	"fmt"
	"strings"

	"oaiagents/internal/action"
	"oaiagents/internal/encoding"
	"oaiagents/internal/model"
	"oaiagents/internal/policy"
)

var (
	ErrUnboundAgent = errors.New("agent has no bound seat")
	ErrDevice       = errors.New("unsupported device")
)

// DeviceCPU is the only compute device weights can be relocated to.
const DeviceCPU = "cpu"

// Type tags of the built-in variants.
const (
	TypePolicy            = "policy"
	TypeDelegate          = "delegate"
	TypeDelegateRecurrent = "delegate_recurrent"
	TypeHierarchical      = "hierarchical"
	TypeScripted          = "scripted"
)

type Agent interface {
	Name() string
	Type() string
	EncodingFn() string
	Bind(seat int)
	Seat() (int, bool)
	Device() string
	// To relocates weights to device.
	To(device string) error
	// Predict returns an action index and, for recurrent agents, the next
	// hidden state. episodeStart discards the incoming state.
	Predict(obs model.Observation, state policy.State, episodeStart, deterministic bool) (int, policy.State, error)
	Distribution(obs model.Observation) (policy.Distribution, error)
	Snapshot() Snapshot
}

// Snapshot is everything a checkpoint needs to rebuild an agent. Delegate is
// set for wrappers of external policy objects and Worker for hierarchical
// agents; both are persisted as the second payload of the checkpoint.
type Snapshot struct {
	StateDict model.StateDict
	Params    model.ConstructorParams
	Delegate  *model.DelegatePayload
	Worker    Agent
}

// Act encodes raw with the agent's bound seat, predicts deterministically and
// maps the index through the fixed action table.
func Act(a Agent, raw model.State) (action.Action, error) {
	seat, ok := a.Seat()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnboundAgent, a.Name())
	}
	encode, err := encoding.Resolve(a.EncodingFn())
	if err != nil {
		return 0, err
	}
	obs, err := encode(raw, seat)
	if err != nil {
		return 0, err
	}
	index, _, err := a.Predict(obs, nil, false, true)
	if err != nil {
		return 0, err
	}
	return action.FromIndex(index)
}

// CheckDevice normalizes a device name and rejects anything but cpu.
func CheckDevice(device string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(device))
	if d == "" {
		d = DeviceCPU
	}
	if d != DeviceCPU {
		return "", fmt.Errorf("%w: %s", ErrDevice, device)
	}
	return d, nil
}

type base struct {
	name       string
	encodingFn string
	seat       int
	bound      bool
	device     string
}

func newBase(name, encodingFn string) (base, error) {
	if strings.TrimSpace(name) == "" {
		return base{}, errors.New("agent name is required")
	}
	if encodingFn == "" {
		encodingFn = encoding.Flat
	}
	return base{name: name, encodingFn: encodingFn, device: DeviceCPU}, nil
}

func (b *base) Name() string       { return b.name }
func (b *base) EncodingFn() string { return b.encodingFn }
func (b *base) Device() string     { return b.device }

func (b *base) Bind(seat int) {
	b.seat = seat
	b.bound = true
}

func (b *base) Seat() (int, bool) {
	return b.seat, b.bound
}

func (b *base) To(device string) error {
	d, err := CheckDevice(device)
	if err != nil {
		return err
	}
	b.device = d
	return nil
}

func (b *base) requireBound() error {
	if !b.bound {
		return fmt.Errorf("%w: %s", ErrUnboundAgent, b.name)
	}
	return nil
}

func (b *base) params() model.ConstructorParams {
	return model.ConstructorParams{Name: b.name, EncodingFn: b.encodingFn}
}
