package oaiagents

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/model"
	"oaiagents/internal/session"
	"oaiagents/internal/storage"
	"oaiagents/internal/trainer"
)

func TestClientTrialsCombineAndReplay(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	client, err := New(Options{StoreKind: storage.BackendFile, Path: dir})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	if err := client.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	store := storage.NewFileStore(dir, nil)
	joints := []string{`[[0,0],[0,0]]`, `[[1,0],"interact"]`, `[[0,1],[0,0]]`}
	for _, id := range []int{1, 2} {
		trial := storage.Trajectory{}
		for tick, joint := range joints {
			trial = append(trial, model.Transition{TrialID: id, Tick: tick, LayoutName: "cramped_room", JointAction: model.EncodedJoint(joint)})
		}
		if err := store.SaveTrial(ctx, "cramped_room", id, trial); err != nil {
			t.Fatalf("save trial %d: %v", id, err)
		}
	}

	trials, err := client.Trials(ctx, "cramped_room")
	if err != nil {
		t.Fatalf("trials: %v", err)
	}
	if len(trials.IDs) != 2 || trials.Next != 3 {
		t.Fatalf("unexpected trials summary: %+v", trials)
	}

	combined, err := client.Combine(ctx, "cramped_room")
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if len(combined) != 6 {
		t.Fatalf("unexpected combined length: %d", len(combined))
	}

	summary, err := client.Replay(ctx, ReplayRequest{Layout: "cramped_room", LogPath: store.CombinedPath("cramped_room")})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	want := []session.TrialSummary{{TrialID: 1, Ticks: 3}, {TrialID: 2, Ticks: 2}}
	if len(summary.Trials) != len(want) {
		t.Fatalf("unexpected replay trials: %+v", summary.Trials)
	}
	for i := range want {
		if summary.Trials[i].TrialID != want[i].TrialID || summary.Trials[i].Ticks != want[i].Ticks {
			t.Fatalf("trial %d: got=%+v want=%+v", i, summary.Trials[i], want[i])
		}
	}
}

func TestClientReplayRequiresLayout(t *testing.T) {
	client, err := New(Options{StoreKind: storage.BackendMemory})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Replay(context.Background(), ReplayRequest{}); err == nil {
		t.Fatal("expected missing layout error")
	}
}

func TestClientEvaluateSavedTrainer(t *testing.T) {
	root := t.TempDir()
	east, err := agent.NewScriptedAgent("east", action.East)
	if err != nil {
		t.Fatalf("scripted agent: %v", err)
	}
	stay, err := agent.NewScriptedAgent("stay", action.Stay)
	if err != nil {
		t.Fatalf("scripted agent: %v", err)
	}
	tr, err := trainer.New(trainer.Config{Name: "pair", Agents: []agent.Agent{east, stay}, Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	t.Cleanup(tr.Close)
	if _, err := tr.SaveAgents(root, "final"); err != nil {
		t.Fatalf("save agents: %v", err)
	}

	client, err := New(Options{StoreKind: storage.BackendMemory})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	res, err := client.Evaluate(context.Background(), EvaluateRequest{
		Root: root, Tag: "final", Layout: "cramped_room", Horizon: 6, Episodes: 2, Seed: 4, Seats: [2]int{0, 1},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Ticks) != 2 || res.Ticks[0] != 6 {
		t.Fatalf("unexpected evaluation: %+v", res)
	}

	loaded, err := client.LoadAgent(filepath.Join(root, "final", "agents_dir", "agent_0", "agent_file"), model.RuntimeArgs{Device: agent.DeviceCPU}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("load agent: %v", err)
	}
	if loaded.Name() != "east" {
		t.Fatalf("unexpected loaded agent: %s", loaded.Name())
	}
}
