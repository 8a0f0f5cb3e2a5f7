package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Tensor is one named parameter block of a policy's weight state.
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func (t Tensor) Clone() Tensor {
	return Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]float64(nil), t.Data...),
	}
}

// StateDict is a full serialized parameter state keyed by parameter name.
type StateDict map[string]Tensor

func (d StateDict) Clone() StateDict {
	if d == nil {
		return nil
	}
	out := make(StateDict, len(d))
	for name, tensor := range d {
		out[name] = tensor.Clone()
	}
	return out
}

// NetworkSpec describes a reference policy network well enough to rebuild it.
type NetworkSpec struct {
	Architecture    string   `json:"architecture" validate:"required"`
	ObservationKeys []string `json:"observation_keys" validate:"required,min=1"`
	Inputs          int      `json:"inputs" validate:"gt=0"`
	Hidden          int      `json:"hidden" validate:"gte=0"`
	Outputs         int      `json:"outputs" validate:"gt=0"`
}

// RuntimeArgs is the configuration snapshot persisted alongside an agent.
type RuntimeArgs struct {
	Device     string `json:"device"`
	LayoutName string `json:"layout_name"`
	EncodingFn string `json:"encoding_fn"`
	Horizon    int    `json:"horizon"`
	DataDir    string `json:"data_dir"`
	ExpName    string `json:"exp_name"`
	Seed       int64  `json:"seed"`
}

// ConstructorParams are the arguments needed to rebuild a concrete agent.
type ConstructorParams struct {
	Name         string       `json:"name" validate:"required"`
	EncodingFn   string       `json:"encoding_fn,omitempty"`
	Network      *NetworkSpec `json:"network,omitempty"`
	DelegateType string       `json:"delegate_type,omitempty"`
	Action       string       `json:"action,omitempty"`
	Subtask      int          `json:"subtask,omitempty"`
}

// CheckpointRecord is the persisted form of a single agent.
type CheckpointRecord struct {
	VersionedRecord
	ID          string            `json:"id" validate:"required"`
	AgentType   string            `json:"agent_type" validate:"required"`
	StateDict   StateDict         `json:"state_dict,omitempty"`
	ConstParams ConstructorParams `json:"const_params"`
	Args        RuntimeArgs       `json:"args"`
	SavedAt     time.Time         `json:"saved_at"`
}

// DelegatePayload is the second half of a wrapper agent checkpoint: the
// externally owned policy object stored next to the wrapper record.
type DelegatePayload struct {
	VersionedRecord
	DelegateType string       `json:"delegate_type" validate:"required"`
	Network      *NetworkSpec `json:"network" validate:"required"`
	StateDict    StateDict    `json:"state_dict" validate:"required"`
}

// TrainerManifest lists the agents of a saved trainer in order.
type TrainerManifest struct {
	VersionedRecord
	Name       string   `json:"name"`
	ModelType  string   `json:"model_type,omitempty"`
	AgentPaths []string `json:"agent_paths" validate:"required"`
}

// CheckpointRef is one entry of a trainer's checkpoint history.
type CheckpointRef struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Tag     string    `json:"tag"`
	SavedAt time.Time `json:"saved_at"`
}
