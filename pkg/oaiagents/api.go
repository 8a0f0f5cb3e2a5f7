// Package oaiagents is the programmatic entry point for working with
// recorded trials and saved agents without a terminal.
package oaiagents

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"oaiagents/internal/agent"
	"oaiagents/internal/checkpoint"
	"oaiagents/internal/gridworld"
	"oaiagents/internal/model"
	"oaiagents/internal/session"
	"oaiagents/internal/storage"
	"oaiagents/internal/trainer"
)

const defaultDataDir = "data"

type Options struct {
	StoreKind string
	// Path is the data directory for file stores and the database location
	// otherwise.
	Path   string
	Logger *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger
}

type ReplayRequest struct {
	Layout  string
	LogPath string
	Horizon int
}

type ReplaySummary struct {
	Trials []session.TrialSummary
}

type EvaluateRequest struct {
	Root     string
	Tag      string
	Layout   string
	Horizon  int
	Episodes int
	Seed     int64
	Seats    [2]int
}

type TrialsSummary struct {
	Layout string
	IDs    []int
	Next   int
}

func New(opts Options) (*Client, error) {
	path := opts.Path
	if path == "" {
		path = defaultDataDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store, err := storage.NewStore(opts.StoreKind, path, logger)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, logger: logger}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Trials(ctx context.Context, layout string) (TrialsSummary, error) {
	ids, err := c.store.TrialIDs(ctx, layout)
	if err != nil {
		return TrialsSummary{}, err
	}
	next, err := storage.NextTrialID(ctx, c.store, layout)
	if err != nil {
		return TrialsSummary{}, err
	}
	return TrialsSummary{Layout: layout, IDs: ids, Next: next}, nil
}

func (c *Client) Combine(ctx context.Context, layout string) (storage.Trajectory, error) {
	return storage.Combine(ctx, c.store, layout)
}

// Replay steps a recorded log through a fresh kitchen without pacing or
// display and reports each trial it covered.
func (c *Client) Replay(ctx context.Context, req ReplayRequest) (ReplaySummary, error) {
	if req.Layout == "" {
		return ReplaySummary{}, errors.New("layout is required")
	}
	records, err := storage.ReadLog(req.LogPath)
	if err != nil {
		return ReplaySummary{}, err
	}
	env, err := newKitchen(req.Layout, req.Horizon)
	if err != nil {
		return ReplaySummary{}, err
	}
	driver, err := session.New(session.Config{
		Env:    env,
		Replay: records,
		Logger: c.logger,
		Sleep:  func(time.Duration) {},
	})
	if err != nil {
		return ReplaySummary{}, err
	}
	res, err := driver.Run(ctx)
	return ReplaySummary{Trials: res.Trials}, err
}

func (c *Client) LoadAgent(path string, runtime model.RuntimeArgs, rng *rand.Rand) (agent.Agent, error) {
	return checkpoint.Load(path, runtime, checkpoint.WithRand(rng))
}

// Evaluate loads the trainer saved under root/tag and plays req.Episodes
// episodes on the layout.
func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) (trainer.EvaluateResult, error) {
	env, err := newKitchen(req.Layout, req.Horizon)
	if err != nil {
		return trainer.EvaluateResult{}, err
	}
	runtime := model.RuntimeArgs{
		Device:     agent.DeviceCPU,
		LayoutName: req.Layout,
		Horizon:    env.Horizon(),
		Seed:       req.Seed,
	}
	t, err := trainer.Load(req.Root, req.Tag, runtime, rand.New(rand.NewSource(req.Seed)), c.logger)
	if err != nil {
		return trainer.EvaluateResult{}, err
	}
	defer t.Close()

	episodes := req.Episodes
	if episodes <= 0 {
		episodes = 1
	}
	return t.Evaluate(ctx, env, trainer.EvaluateConfig{Episodes: episodes, Seats: req.Seats, Deterministic: true})
}

func newKitchen(layout string, horizon int) (*gridworld.Kitchen, error) {
	opts := []gridworld.Option{}
	if horizon > 0 {
		opts = append(opts, gridworld.WithHorizon(horizon))
	}
	return gridworld.NewKitchen(layout, opts...)
}
