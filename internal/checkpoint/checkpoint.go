package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"oaiagents/internal/agent"
	"oaiagents/internal/model"
)

// DelegateSuffix is appended to an agent path for the second payload of
// wrapper and hierarchical agents.
const DelegateSuffix = "_delegate"

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// MergeArgs combines a persisted configuration snapshot with runtime args.
// Runtime values win for device, layout name and data dir when set; the
// persisted values win for everything else.
func MergeArgs(persisted, runtime model.RuntimeArgs) model.RuntimeArgs {
	out := persisted
	if runtime.Device != "" {
		out.Device = runtime.Device
	}
	if runtime.LayoutName != "" {
		out.LayoutName = runtime.LayoutName
	}
	if runtime.DataDir != "" {
		out.DataDir = runtime.DataDir
	}
	return out
}

// Save writes a's record to path and, for agents with a second payload, the
// payload to path+DelegateSuffix.
func Save(a agent.Agent, path string, runtime model.RuntimeArgs) (err error) {
	defer func() { observe("save", a.Type(), err) }()

	spec, err := Lookup(a.Type())
	if err != nil {
		return &Error{Op: "save", Path: path, Err: err}
	}
	snap := a.Snapshot()
	args := runtime
	args.Device = a.Device()
	record := model.CheckpointRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
		},
		ID:          uuid.NewString(),
		AgentType:   a.Type(),
		StateDict:   snap.StateDict.Clone(),
		ConstParams: snap.Params,
		Args:        args,
		SavedAt:     time.Now().UTC(),
	}
	if err := writeJSON(path, record); err != nil {
		return &Error{Op: "save", Path: path, Err: err}
	}

	switch spec.Payload {
	case PayloadDelegate:
		if snap.Delegate == nil {
			return &Error{Op: "save", Path: path, Err: fmt.Errorf("%s agent has no delegate payload", a.Type())}
		}
		if err := writeJSON(path+DelegateSuffix, snap.Delegate); err != nil {
			return &Error{Op: "save", Path: path + DelegateSuffix, Err: err}
		}
	case PayloadWorker:
		if snap.Worker == nil {
			return &Error{Op: "save", Path: path, Err: fmt.Errorf("%s agent has no worker", a.Type())}
		}
		if err := Save(snap.Worker, path+DelegateSuffix, runtime); err != nil {
			return err
		}
	}
	return nil
}

type loadOptions struct {
	rng      *rand.Rand
	subtasks agent.SubtaskProvider
}

type LoadOption func(*loadOptions)

// WithRand supplies the random source of sampling agents. Without it the
// source is seeded from the merged args.
func WithRand(rng *rand.Rand) LoadOption {
	return func(o *loadOptions) { o.rng = rng }
}

// WithSubtaskProvider supplies the provider of loaded hierarchical agents.
func WithSubtaskProvider(p agent.SubtaskProvider) LoadOption {
	return func(o *loadOptions) { o.subtasks = p }
}

// Load rebuilds the agent saved at path.
func Load(path string, runtime model.RuntimeArgs, opts ...LoadOption) (a agent.Agent, err error) {
	agentType := "unknown"
	defer func() { observe("load", agentType, err) }()

	record, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	agentType = record.AgentType

	spec, err := Lookup(record.AgentType)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	record.Args = MergeArgs(record.Args, runtime)

	options := loadOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.rng == nil {
		options.rng = rand.New(rand.NewSource(record.Args.Seed))
	}

	in := Restore{Record: record, Rand: options.rng, Subtasks: options.subtasks}
	switch spec.Payload {
	case PayloadDelegate:
		var payload model.DelegatePayload
		if err := readJSON(path+DelegateSuffix, &payload); err != nil {
			return nil, &Error{Op: "load", Path: path + DelegateSuffix, Err: err}
		}
		if err := validate.Struct(payload); err != nil {
			return nil, &Error{Op: "load", Path: path + DelegateSuffix, Err: corrupt("%v", err)}
		}
		in.Delegate = &payload
	case PayloadWorker:
		worker, err := Load(path+DelegateSuffix, runtime, opts...)
		if err != nil {
			return nil, err
		}
		in.Worker = worker
	}

	loaded, err := spec.Construct(in)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	if err := loaded.To(record.Args.Device); err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	return loaded, nil
}

// Inspect reads and validates the record at path without rebuilding it.
func Inspect(path string) (model.CheckpointRecord, error) {
	var record model.CheckpointRecord
	if err := readJSON(path, &record); err != nil {
		return model.CheckpointRecord{}, &Error{Op: "load", Path: path, Err: err}
	}
	if record.SchemaVersion != SupportedSchemaVersion || record.CodecVersion != SupportedCodecVersion {
		return model.CheckpointRecord{}, &Error{Op: "load", Path: path, Err: corrupt(
			"version schema=%d codec=%d", record.SchemaVersion, record.CodecVersion)}
	}
	if err := validate.Struct(record); err != nil {
		return model.CheckpointRecord{}, &Error{Op: "load", Path: path, Err: corrupt("%v", err)}
	}
	return record, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readJSON reports missing or undecodable files as corruption; missing files
// still match os.ErrNotExist.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrCorruptCheckpoint, err)
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return corrupt("decode: %v", err)
	}
	return nil
}
