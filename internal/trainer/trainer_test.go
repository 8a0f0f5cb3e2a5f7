package trainer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/encoding"
	"oaiagents/internal/gridworld"
	"oaiagents/internal/model"
	"oaiagents/internal/policy"
)

func testRuntime() model.RuntimeArgs {
	return model.RuntimeArgs{
		Device:     agent.DeviceCPU,
		LayoutName: "cramped_room",
		EncodingFn: encoding.Flat,
		Horizon:    40,
		Seed:       3,
	}
}

func policyAgent(t *testing.T, name, arch string, seed int64) *agent.PolicyAgent {
	t.Helper()
	net, err := policy.NewNetwork(model.NetworkSpec{
		Architecture:    arch,
		ObservationKeys: []string{model.ObsAgent},
		Inputs:          encoding.FlatSize,
		Hidden:          4,
		Outputs:         action.NumActions,
	}, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	a, err := agent.NewPolicyAgent(name, encoding.Flat, net, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return a
}

func newTrainer(t *testing.T, name string, agents ...agent.Agent) *Trainer {
	t.Helper()
	tr, err := New(Config{Name: name, Agents: agents, Rand: rand.New(rand.NewSource(1)), Runtime: testRuntime()})
	require.NoError(t, err)
	t.Cleanup(tr.Close)
	return tr
}

func TestNewRequiresRand(t *testing.T) {
	_, err := New(Config{Name: "no-rng"})
	require.Error(t, err)
}

func TestOwnershipIsExclusive(t *testing.T) {
	shared := policyAgent(t, "shared", policy.ArchitectureLinear, 1)
	first := newTrainer(t, "first", shared)

	_, err := New(Config{Name: "second", Agents: []agent.Agent{shared}, Rand: rand.New(rand.NewSource(2))})
	require.ErrorIs(t, err, ErrAgentOwned)

	other := newTrainer(t, "other")
	require.ErrorIs(t, other.Add(shared), ErrAgentOwned)

	replacement := policyAgent(t, "replacement", policy.ArchitectureLinear, 2)
	require.NoError(t, first.Replace(0, replacement))
	require.NoError(t, other.Add(shared))
	assert.Len(t, other.Agents(), 1)

	require.ErrorIs(t, first.Replace(3, replacement), ErrIndex)
}

func TestCloseReleasesAgents(t *testing.T) {
	a := policyAgent(t, "a", policy.ArchitectureLinear, 1)
	tr, err := New(Config{Name: "closing", Agents: []agent.Agent{a}, Rand: rand.New(rand.NewSource(1))})
	require.NoError(t, err)
	tr.Close()
	assert.Empty(t, tr.Agents())

	next := newTrainer(t, "next", a)
	assert.Len(t, next.Agents(), 1)
}

func TestSaveAndLoadPreservesOrder(t *testing.T) {
	root := t.TempDir()
	agents := []agent.Agent{
		policyAgent(t, "zero", policy.ArchitectureLinear, 11),
		policyAgent(t, "one", policy.ArchitectureElman, 12),
		policyAgent(t, "two", policy.ArchitectureLinear, 13),
	}
	tr := newTrainer(t, "population", agents...)

	ref, err := tr.SaveAgents(root, "best")
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, "best", ref.Tag)
	require.Len(t, tr.Checkpoints(), 1)
	assert.Equal(t, ref, tr.Checkpoints()[0])

	loaded, err := Load(root, "best", testRuntime(), rand.New(rand.NewSource(5)), nil)
	require.NoError(t, err)
	t.Cleanup(loaded.Close)
	assert.Equal(t, "population", loaded.Name())

	got := loaded.Agents()
	require.Len(t, got, len(agents))
	env, err := gridworld.NewKitchen("cramped_room", gridworld.WithHorizon(5))
	require.NoError(t, err)
	_, err = env.Reset()
	require.NoError(t, err)
	obs, err := env.Observe(0, true)
	require.NoError(t, err)

	for i := range agents {
		assert.Equal(t, agents[i].Name(), got[i].Name())
		assert.Equal(t, agents[i].Type(), got[i].Type())

		agents[i].Bind(0)
		got[i].Bind(0)
		want, err := agents[i].Distribution(obs)
		require.NoError(t, err)
		have, err := got[i].Distribution(obs)
		require.NoError(t, err)
		assert.Equal(t, want, have)
	}
}

func TestSaveAgentsEmpty(t *testing.T) {
	tr := newTrainer(t, "empty")
	_, err := tr.SaveAgents(t.TempDir(), "none")
	require.ErrorIs(t, err, ErrNoAgents)
}

func TestPickTeammate(t *testing.T) {
	a := policyAgent(t, "a", policy.ArchitectureLinear, 1)
	b := policyAgent(t, "b", policy.ArchitectureLinear, 2)
	tr := newTrainer(t, "pool", a, b)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		mate, err := tr.PickTeammate()
		require.NoError(t, err)
		seen[mate.Name()] = true
	}
	assert.True(t, seen["a"])
	assert.True(t, seen["b"])

	empty := newTrainer(t, "nobody")
	_, err := empty.PickTeammate()
	require.ErrorIs(t, err, ErrNoAgents)
}

func TestEvaluateRunsFullEpisodes(t *testing.T) {
	learner := policyAgent(t, "learner", policy.ArchitectureElman, 21)
	stay, err := agent.NewScriptedAgent("stay", action.Stay)
	require.NoError(t, err)
	tr := newTrainer(t, "eval", learner, stay)

	env, err := gridworld.NewKitchen("cramped_room", gridworld.WithHorizon(12))
	require.NoError(t, err)

	res, err := tr.Evaluate(context.Background(), env, EvaluateConfig{Episodes: 3, Seats: [2]int{0, 1}, Deterministic: true})
	require.NoError(t, err)
	assert.Equal(t, []int{12, 12, 12}, res.Ticks)
	require.Len(t, res.Returns, 3)
	assert.Equal(t, res.Returns[0], res.Returns[1])

	seat, ok := learner.Seat()
	require.True(t, ok)
	assert.Equal(t, 0, seat)
}

func TestEvaluateErrors(t *testing.T) {
	a := policyAgent(t, "a", policy.ArchitectureLinear, 1)
	tr := newTrainer(t, "errs", a)
	env, err := gridworld.NewKitchen("cramped_room", gridworld.WithHorizon(4))
	require.NoError(t, err)

	_, err = tr.Evaluate(context.Background(), env, EvaluateConfig{Episodes: 0})
	require.Error(t, err)

	_, err = tr.Evaluate(context.Background(), env, EvaluateConfig{Episodes: 1, Seats: [2]int{0, 1}})
	require.ErrorIs(t, err, ErrIndex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Evaluate(ctx, env, EvaluateConfig{Episodes: 1, Seats: [2]int{0, 0}, Deterministic: true})
	require.ErrorIs(t, err, context.Canceled)
}
