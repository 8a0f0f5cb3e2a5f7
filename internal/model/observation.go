package model

// Observation keys. Completion signals and the subtask mask are one-hot or
// mask vectors over subtask ids; CurrentSubtask is a one-hot vector injected
// by hierarchical controllers.
const (
	ObsAgent                     = "agent_obs"
	ObsPlayerCompletedSubtasks   = "player_completed_subtasks"
	ObsTeammateCompletedSubtasks = "teammate_completed_subtasks"
	ObsSubtaskMask               = "subtask_mask"
	ObsCurrentSubtask            = "curr_subtask"
)

// Observation is a policy-consumable view of the world keyed by component.
type Observation map[string][]float64

func (o Observation) Clone() Observation {
	if o == nil {
		return nil
	}
	out := make(Observation, len(o))
	for k, v := range o {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

// Signaled reports whether key is present with at least one non-zero entry.
func (o Observation) Signaled(key string) bool {
	for _, v := range o[key] {
		if v != 0 {
			return true
		}
	}
	return false
}

// OneHot builds a vector of length n with index set, or all zeros when index
// is out of range.
func OneHot(n, index int) []float64 {
	out := make([]float64, n)
	if index >= 0 && index < n {
		out[index] = 1
	}
	return out
}
