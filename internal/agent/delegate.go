package agent

import (
	"errors"
	"fmt"

	"oaiagents/internal/model"
	"oaiagents/internal/policy"
)

// DelegateAgent wraps a stateless external policy object.
type DelegateAgent struct {
	base
	delegate policy.Delegate
}

func NewDelegateAgent(name, encodingFn string, delegate policy.Delegate) (*DelegateAgent, error) {
	b, err := newBase(name, encodingFn)
	if err != nil {
		return nil, err
	}
	if delegate == nil {
		return nil, errors.New("delegate is required")
	}
	if delegate.Recurrent() {
		return nil, fmt.Errorf("delegate %s is recurrent, use a recurrent delegate agent", delegate.Type())
	}
	return &DelegateAgent{base: b, delegate: delegate}, nil
}

func (d *DelegateAgent) Type() string              { return TypeDelegate }
func (d *DelegateAgent) Delegate() policy.Delegate { return d.delegate }
func (d *DelegateAgent) ObservationKeys() []string { return d.delegate.ObservationKeys() }

func (d *DelegateAgent) Predict(obs model.Observation, _ policy.State, episodeStart, deterministic bool) (int, policy.State, error) {
	if err := d.requireBound(); err != nil {
		return 0, nil, err
	}
	index, _, err := d.delegate.Predict(obs, nil, episodeStart, deterministic)
	return index, nil, err
}

func (d *DelegateAgent) Distribution(obs model.Observation) (policy.Distribution, error) {
	return d.delegate.Distribution(obs)
}

func (d *DelegateAgent) Snapshot() Snapshot {
	payload := d.delegate.Payload()
	params := d.params()
	params.DelegateType = payload.DelegateType
	return Snapshot{Params: params, Delegate: &payload}
}

// RecurrentDelegateAgent wraps a recurrent external policy. The caller owns
// the hidden state; the agent keeps a copy of the last state it returned for
// inspection only.
type RecurrentDelegateAgent struct {
	base
	delegate policy.Delegate
	last     policy.State
}

func NewRecurrentDelegateAgent(name, encodingFn string, delegate policy.Delegate) (*RecurrentDelegateAgent, error) {
	b, err := newBase(name, encodingFn)
	if err != nil {
		return nil, err
	}
	if delegate == nil {
		return nil, errors.New("delegate is required")
	}
	if !delegate.Recurrent() {
		return nil, fmt.Errorf("delegate %s is not recurrent", delegate.Type())
	}
	return &RecurrentDelegateAgent{base: b, delegate: delegate}, nil
}

func (r *RecurrentDelegateAgent) Type() string              { return TypeDelegateRecurrent }
func (r *RecurrentDelegateAgent) Delegate() policy.Delegate { return r.delegate }
func (r *RecurrentDelegateAgent) ObservationKeys() []string { return r.delegate.ObservationKeys() }

// LastState returns a copy of the most recent hidden state produced.
func (r *RecurrentDelegateAgent) LastState() policy.State {
	return r.last.Clone()
}

func (r *RecurrentDelegateAgent) Predict(obs model.Observation, state policy.State, episodeStart, deterministic bool) (int, policy.State, error) {
	if err := r.requireBound(); err != nil {
		return 0, nil, err
	}
	index, next, err := r.delegate.Predict(obs, state.Clone(), episodeStart, deterministic)
	if err != nil {
		return 0, nil, err
	}
	r.last = next.Clone()
	return index, next, nil
}

func (r *RecurrentDelegateAgent) Distribution(obs model.Observation) (policy.Distribution, error) {
	return r.delegate.Distribution(obs)
}

func (r *RecurrentDelegateAgent) Snapshot() Snapshot {
	payload := r.delegate.Payload()
	params := r.params()
	params.DelegateType = payload.DelegateType
	return Snapshot{Params: params, Delegate: &payload}
}
