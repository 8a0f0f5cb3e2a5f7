package agent

import (
	"errors"
	"fmt"

	"oaiagents/internal/model"
	"oaiagents/internal/policy"
)

var ErrNoSubtaskProvider = errors.New("no subtask provider")

// SubtaskProvider chooses the next subtask once the controlled player
// completes one. legal is never empty.
type SubtaskProvider interface {
	NextSubtask(current int, legal []int) (int, error)
}

type SubtaskProviderFunc func(current int, legal []int) (int, error)

func (f SubtaskProviderFunc) NextSubtask(current int, legal []int) (int, error) {
	return f(current, legal)
}

// ScriptedSubtasks hands out a fixed sequence of subtasks, then repeats the
// last one.
type ScriptedSubtasks struct {
	Sequence []int
	next     int
}

func (s *ScriptedSubtasks) NextSubtask(current int, _ []int) (int, error) {
	if len(s.Sequence) == 0 {
		return current, nil
	}
	id := s.Sequence[min(s.next, len(s.Sequence)-1)]
	s.next++
	return id, nil
}

// observationKeyed is implemented by workers that declare the observation
// components they read.
type observationKeyed interface {
	ObservationKeys() []string
}

// HierarchicalAgent drives a worker agent toward a current subtask, switching
// subtasks only on ticks where the player-completed signal is set.
type HierarchicalAgent struct {
	base
	worker   Agent
	current  int
	provider SubtaskProvider
}

func NewHierarchicalAgent(name, encodingFn string, worker Agent, provider SubtaskProvider) (*HierarchicalAgent, error) {
	b, err := newBase(name, encodingFn)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, errors.New("worker agent is required")
	}
	return &HierarchicalAgent{
		base:     b,
		worker:   worker,
		current:  model.SubtaskUnknown,
		provider: provider,
	}, nil
}

func (h *HierarchicalAgent) Type() string        { return TypeHierarchical }
func (h *HierarchicalAgent) Worker() Agent       { return h.worker }
func (h *HierarchicalAgent) CurrentSubtask() int { return h.current }

func (h *HierarchicalAgent) SetSubtaskProvider(p SubtaskProvider) {
	h.provider = p
}

// SetCurrentSubtask restores a persisted subtask id.
func (h *HierarchicalAgent) SetCurrentSubtask(id int) error {
	if id < 0 || id >= model.NumSubtasks {
		return fmt.Errorf("subtask id %d out of range", id)
	}
	h.current = id
	return nil
}

func (h *HierarchicalAgent) Bind(seat int) {
	h.base.Bind(seat)
	h.worker.Bind(seat)
}

func (h *HierarchicalAgent) To(device string) error {
	if err := h.base.To(device); err != nil {
		return err
	}
	return h.worker.To(device)
}

func (h *HierarchicalAgent) Predict(obs model.Observation, state policy.State, episodeStart, deterministic bool) (int, policy.State, error) {
	if err := h.requireBound(); err != nil {
		return 0, nil, err
	}
	workerObs, err := h.prepare(obs)
	if err != nil {
		return 0, nil, err
	}
	return h.worker.Predict(workerObs, state, episodeStart, deterministic)
}

func (h *HierarchicalAgent) Distribution(obs model.Observation) (policy.Distribution, error) {
	workerObs, err := h.prepare(obs)
	if err != nil {
		return nil, err
	}
	return h.worker.Distribution(workerObs)
}

func (h *HierarchicalAgent) Snapshot() Snapshot {
	params := h.params()
	params.Subtask = h.current
	params.DelegateType = h.worker.Type()
	return Snapshot{Params: params, Worker: h.worker}
}

func (h *HierarchicalAgent) prepare(obs model.Observation) (model.Observation, error) {
	if obs.Signaled(model.ObsPlayerCompletedSubtasks) {
		if h.provider == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoSubtaskProvider, h.name)
		}
		legal := LegalSubtasks(obs)
		next, err := h.provider.NextSubtask(h.current, legal)
		if err != nil {
			return nil, err
		}
		if !containsInt(legal, next) {
			return nil, fmt.Errorf("subtask %d (%s) is not legal here", next, model.SubtaskName(next))
		}
		h.current = next
	}

	out := obs.Clone()
	if out == nil {
		out = model.Observation{}
	}
	out[model.ObsCurrentSubtask] = model.OneHot(model.NumSubtasks, h.current)

	expected := map[string]bool{}
	if keyed, ok := h.worker.(observationKeyed); ok {
		for _, k := range keyed.ObservationKeys() {
			expected[k] = true
		}
	}
	for _, key := range []string{model.ObsPlayerCompletedSubtasks, model.ObsTeammateCompletedSubtasks} {
		if !expected[key] {
			delete(out, key)
		}
	}
	return out, nil
}

// LegalSubtasks lists the selectable subtask ids: those set in the
// observation's subtask mask, or every determined subtask when no mask is
// present.
func LegalSubtasks(obs model.Observation) []int {
	mask, ok := obs[model.ObsSubtaskMask]
	legal := make([]int, 0, model.NumSubtasks-1)
	for id := 0; id < model.SubtaskUnknown; id++ {
		if ok && (id >= len(mask) || mask[id] == 0) {
			continue
		}
		legal = append(legal, id)
	}
	if len(legal) == 0 {
		for id := 0; id < model.SubtaskUnknown; id++ {
			legal = append(legal, id)
		}
	}
	return legal
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
