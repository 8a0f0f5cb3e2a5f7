package agent

import (
	"errors"
	"math/rand"

	"oaiagents/internal/action"
	"oaiagents/internal/model"
	"oaiagents/internal/policy"
)

// Persisted action names of the random teammates. ScriptedRandomDirection
// only moves, picking among the four directions.
const (
	ScriptedRandom          = "random"
	ScriptedRandomDirection = "random_dir"
)

// numDirections is the count of leading action indices that are moves.
const numDirections = 4

// ScriptedAgent plays either a fixed action or a uniformly random one drawn
// from the first choices action indices.
type ScriptedAgent struct {
	base
	fixed   action.Action
	random  bool
	choices int
	rng     *rand.Rand
}

func NewScriptedAgent(name string, act action.Action) (*ScriptedAgent, error) {
	b, err := newBase(name, "")
	if err != nil {
		return nil, err
	}
	if !act.Valid() {
		return nil, errors.New("scripted action is not legal")
	}
	return &ScriptedAgent{base: b, fixed: act}, nil
}

func NewRandomAgent(name string, rng *rand.Rand) (*ScriptedAgent, error) {
	return newRandom(name, rng, action.NumActions)
}

// NewRandomDirectionAgent moves in a uniformly random direction every tick.
func NewRandomDirectionAgent(name string, rng *rand.Rand) (*ScriptedAgent, error) {
	return newRandom(name, rng, numDirections)
}

func newRandom(name string, rng *rand.Rand, choices int) (*ScriptedAgent, error) {
	b, err := newBase(name, "")
	if err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("random agent needs a random source")
	}
	return &ScriptedAgent{base: b, random: true, choices: choices, rng: rng}, nil
}

func (s *ScriptedAgent) Type() string { return TypeScripted }

func (s *ScriptedAgent) Predict(_ model.Observation, _ policy.State, _, _ bool) (int, policy.State, error) {
	if err := s.requireBound(); err != nil {
		return 0, nil, err
	}
	if s.random {
		return s.rng.Intn(s.choices), nil, nil
	}
	return s.fixed.Index(), nil, nil
}

func (s *ScriptedAgent) Distribution(model.Observation) (policy.Distribution, error) {
	out := make(policy.Distribution, action.NumActions)
	if s.random {
		for i := 0; i < s.choices; i++ {
			out[i] = 1 / float64(s.choices)
		}
		return out, nil
	}
	out[s.fixed.Index()] = 1
	return out, nil
}

func (s *ScriptedAgent) Snapshot() Snapshot {
	params := s.params()
	params.Action = s.fixed.String()
	switch {
	case s.random && s.choices == numDirections:
		params.Action = ScriptedRandomDirection
	case s.random:
		params.Action = ScriptedRandom
	}
	return Snapshot{Params: params}
}
