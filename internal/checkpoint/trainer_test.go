package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/model"
	"oaiagents/internal/policy"
)

type agentList struct {
	name   string
	agents []agent.Agent
}

func (l agentList) Name() string          { return l.name }
func (l agentList) Agents() []agent.Agent { return l.agents }

func TestSaveLoadAgentsPreservesOrder(t *testing.T) {
	var agents []agent.Agent
	for i, arch := range []string{policy.ArchitectureLinear, policy.ArchitectureElman, policy.ArchitectureLinear} {
		a, err := agent.NewPolicyAgent("agent"+string(rune('a'+i)), "", testNetwork(t, arch), nil)
		require.NoError(t, err)
		agents = append(agents, a)
	}
	root := t.TempDir()

	dir, err := SaveAgents(agentList{name: "selfplay", agents: agents}, root, "best", testRuntime())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "best"), dir)
	assert.FileExists(t, filepath.Join(dir, TrainerFile))
	assert.FileExists(t, filepath.Join(dir, AgentsDir, "agent_2", AgentFile))

	manifest, loaded, err := LoadAgents(root, "best", model.RuntimeArgs{})
	require.NoError(t, err)
	assert.Equal(t, "selfplay", manifest.Name)
	assert.Equal(t, agent.TypePolicy, manifest.ModelType)
	assert.Equal(t, []string{"agent_0", "agent_1", "agent_2"}, manifest.AgentPaths)
	require.Len(t, loaded, 3)
	for i := range agents {
		assert.Equal(t, agents[i].Name(), loaded[i].Name())
		assertSamePredictions(t, agents[i], loaded[i], fixedObservation(t))
	}
}

func TestSaveAgentsMixedTypesHasNoModelType(t *testing.T) {
	p, err := agent.NewPolicyAgent("p", "", testNetwork(t, policy.ArchitectureLinear), nil)
	require.NoError(t, err)
	s, err := agent.NewScriptedAgent("s", action.Stay)
	require.NoError(t, err)

	root := t.TempDir()
	_, err = SaveAgents(agentList{name: "mixed", agents: []agent.Agent{p, s}}, root, "ck_0", testRuntime())
	require.NoError(t, err)

	manifest, loaded, err := LoadAgents(root, "ck_0", model.RuntimeArgs{})
	require.NoError(t, err)
	assert.Empty(t, manifest.ModelType)
	assert.Equal(t, agent.TypeScripted, loaded[1].Type())
}

func TestLoadAgentsManifestMismatch(t *testing.T) {
	s, err := agent.NewScriptedAgent("s", action.Stay)
	require.NoError(t, err)
	root := t.TempDir()
	dir, err := SaveAgents(agentList{name: "pair", agents: []agent.Agent{s, s}}, root, "last", testRuntime())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, AgentsDir, "agent_7"), 0o755))
	_, _, err = LoadAgents(root, "last", model.RuntimeArgs{})
	assert.ErrorIs(t, err, ErrManifestMismatch)

	require.NoError(t, os.RemoveAll(filepath.Join(dir, AgentsDir, "agent_7")))
	require.NoError(t, os.RemoveAll(filepath.Join(dir, AgentsDir, "agent_1")))
	_, _, err = LoadAgents(root, "last", model.RuntimeArgs{})
	assert.ErrorIs(t, err, ErrManifestMismatch)
}

func TestSaveAgentsReplacesStaleAgentDirs(t *testing.T) {
	s, err := agent.NewScriptedAgent("s", action.Stay)
	require.NoError(t, err)
	root := t.TempDir()
	_, err = SaveAgents(agentList{name: "t", agents: []agent.Agent{s, s, s}}, root, "tag", testRuntime())
	require.NoError(t, err)
	_, err = SaveAgents(agentList{name: "t", agents: []agent.Agent{s}}, root, "tag", testRuntime())
	require.NoError(t, err)

	_, loaded, err := LoadAgents(root, "tag", model.RuntimeArgs{})
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestLoadAgentDir(t *testing.T) {
	s, err := agent.NewScriptedAgent("s", action.Interact)
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, Save(s, filepath.Join(dir, AgentFile), testRuntime()))

	loaded, err := LoadAgentDir(dir, model.RuntimeArgs{})
	require.NoError(t, err)
	loaded.Bind(1)
	index, _, err := loaded.Predict(nil, nil, true, true)
	require.NoError(t, err)
	assert.Equal(t, action.Interact.Index(), index)
}
