package agent

import (
	"errors"
	"math/rand"

	"oaiagents/internal/model"
	"oaiagents/internal/policy"
)

// PolicyAgent owns a reference network in-process. Its weights are stored
// inline in the checkpoint record.
type PolicyAgent struct {
	base
	net policy.Network
	rng *rand.Rand
}

func NewPolicyAgent(name, encodingFn string, net policy.Network, rng *rand.Rand) (*PolicyAgent, error) {
	b, err := newBase(name, encodingFn)
	if err != nil {
		return nil, err
	}
	if net == nil {
		return nil, errors.New("policy network is required")
	}
	return &PolicyAgent{base: b, net: net, rng: rng}, nil
}

func (p *PolicyAgent) Type() string            { return TypePolicy }
func (p *PolicyAgent) Network() policy.Network { return p.net }

func (p *PolicyAgent) ObservationKeys() []string {
	return append([]string(nil), p.net.Spec().ObservationKeys...)
}

func (p *PolicyAgent) Predict(obs model.Observation, state policy.State, episodeStart, deterministic bool) (int, policy.State, error) {
	if err := p.requireBound(); err != nil {
		return 0, nil, err
	}
	return policy.Step(p.net, obs, state, episodeStart, deterministic, p.rng)
}

func (p *PolicyAgent) Distribution(obs model.Observation) (policy.Distribution, error) {
	return policy.Evaluate(p.net, obs)
}

func (p *PolicyAgent) Snapshot() Snapshot {
	params := p.params()
	spec := p.net.Spec()
	params.Network = &spec
	return Snapshot{StateDict: p.net.StateDict(), Params: params}
}
