package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"oaiagents/internal/agent"
	"oaiagents/internal/model"
)

// On-disk names of a saved trainer:
//
//	root/tag/trainer_file
//	root/tag/agents_dir/agent_<i>/agent_file
const (
	TrainerFile = "trainer_file"
	AgentsDir   = "agents_dir"
	AgentFile   = "agent_file"
)

var agentDirPattern = regexp.MustCompile(`^agent_[0-9]+$`)

// AgentSet is the view of a trainer that SaveAgents needs.
type AgentSet interface {
	Name() string
	Agents() []agent.Agent
}

// SaveAgents writes the manifest and one checkpoint directory per agent, in
// order. It returns the tag directory.
func SaveAgents(set AgentSet, root, tag string, runtime model.RuntimeArgs) (string, error) {
	dir := filepath.Join(root, tag)
	agentsDir := filepath.Join(dir, AgentsDir)
	if err := os.RemoveAll(agentsDir); err != nil {
		return "", &Error{Op: "save", Path: agentsDir, Err: err}
	}

	agents := set.Agents()
	manifest := model.TrainerManifest{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
		},
		Name:       set.Name(),
		ModelType:  homogeneousType(agents),
		AgentPaths: make([]string, 0, len(agents)),
	}
	for i, a := range agents {
		sub := "agent_" + strconv.Itoa(i)
		if err := Save(a, filepath.Join(agentsDir, sub, AgentFile), runtime); err != nil {
			return "", err
		}
		manifest.AgentPaths = append(manifest.AgentPaths, sub)
	}
	if err := writeJSON(filepath.Join(dir, TrainerFile), manifest); err != nil {
		return "", &Error{Op: "save", Path: filepath.Join(dir, TrainerFile), Err: err}
	}
	return dir, nil
}

// LoadAgents reads root/tag and rebuilds the agents in manifest order.
func LoadAgents(root, tag string, runtime model.RuntimeArgs, opts ...LoadOption) (model.TrainerManifest, []agent.Agent, error) {
	dir := filepath.Join(root, tag)
	manifestPath := filepath.Join(dir, TrainerFile)

	var manifest model.TrainerManifest
	if err := readJSON(manifestPath, &manifest); err != nil {
		return model.TrainerManifest{}, nil, &Error{Op: "load", Path: manifestPath, Err: err}
	}
	if err := validate.Struct(manifest); err != nil {
		return model.TrainerManifest{}, nil, &Error{Op: "load", Path: manifestPath, Err: corrupt("%v", err)}
	}

	agentsDir := filepath.Join(dir, AgentsDir)
	present, err := countAgentDirs(agentsDir)
	if err != nil {
		return model.TrainerManifest{}, nil, &Error{Op: "load", Path: agentsDir, Err: err}
	}
	if present != len(manifest.AgentPaths) {
		return model.TrainerManifest{}, nil, &Error{Op: "load", Path: dir, Err: fmt.Errorf(
			"%w: manifest lists %d agents, directory holds %d", ErrManifestMismatch, len(manifest.AgentPaths), present)}
	}

	agents := make([]agent.Agent, 0, len(manifest.AgentPaths))
	for _, sub := range manifest.AgentPaths {
		a, err := LoadAgentDir(filepath.Join(agentsDir, sub), runtime, opts...)
		if err != nil {
			return model.TrainerManifest{}, nil, err
		}
		if manifest.ModelType != "" && a.Type() != manifest.ModelType {
			return model.TrainerManifest{}, nil, &Error{Op: "load", Path: sub, Err: fmt.Errorf(
				"%w: agent type %s, manifest type %s", ErrManifestMismatch, a.Type(), manifest.ModelType)}
		}
		agents = append(agents, a)
	}
	return manifest, agents, nil
}

// LoadAgentDir loads dir/agent_file.
func LoadAgentDir(dir string, runtime model.RuntimeArgs, opts ...LoadOption) (agent.Agent, error) {
	return Load(filepath.Join(dir, AgentFile), runtime, opts...)
}

func homogeneousType(agents []agent.Agent) string {
	if len(agents) == 0 {
		return ""
	}
	t := agents[0].Type()
	for _, a := range agents[1:] {
		if a.Type() != t {
			return ""
		}
	}
	return t
}

func countAgentDirs(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() && agentDirPattern.MatchString(e.Name()) {
			n++
		}
	}
	return n, nil
}
