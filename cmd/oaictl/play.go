package main

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/spf13/cobra"

	"oaiagents/internal/agent"
	"oaiagents/internal/checkpoint"
	"oaiagents/internal/gridworld"
	"oaiagents/internal/model"
	"oaiagents/internal/session"
	"oaiagents/internal/storage"
	"oaiagents/internal/terminal"
)

type playOptions struct {
	slowmo   float64
	horizon  int
	encoding string
	trajFile string
	agent    string
	teammate string
	seat     int
	combine  bool
}

func newPlayCmd(global *globalOptions) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run a session: collect with no inputs, play with --agent, replay with --traj",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlay(cmd, global, opts)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&opts.slowmo, "slowmo", 0, "slow-motion multiplier; fps is 30 divided by this")
	f.IntVar(&opts.horizon, "horizon", 0, "episode length in ticks")
	f.StringVar(&opts.encoding, "encoding", "", "encoding function of the environment")
	f.StringVar(&opts.trajFile, "traj", "", "trajectory log to replay")
	f.StringVar(&opts.agent, "agent", "", "agent checkpoint to play")
	f.StringVar(&opts.teammate, "teammate", "", "teammate checkpoint for the other seat, or random|random_dir")
	f.IntVar(&opts.seat, "seat", 0, "seat played by --agent")
	f.BoolVar(&opts.combine, "combine", false, "combine the layout's trials after the session")
	return cmd
}

func runPlay(cmd *cobra.Command, global *globalOptions, opts *playOptions) error {
	ctx := cmd.Context()
	args, err := global.args(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("slowmo") {
		args.SlowmoRate = opts.slowmo
	}
	if cmd.Flags().Changed("horizon") {
		args.Horizon = opts.horizon
	}
	if cmd.Flags().Changed("encoding") {
		args.EncodingFn = opts.encoding
	}
	if err := args.Validate(); err != nil {
		return err
	}
	logger := newLogger(cmd, args)

	env, err := gridworld.NewKitchen(args.LayoutName,
		gridworld.WithHorizon(args.Horizon),
		gridworld.WithEncoding(args.EncodingFn))
	if err != nil {
		return err
	}

	console := terminal.NewConsole(nil, nil)
	cfg := session.Config{
		Env:     env,
		Display: console,
		Input:   console,
		Logger:  logger,
		FPS:     args.FPS(),
		Seat:    opts.seat,

		QuitSignal: console.Quit(),
	}

	rng := rand.New(rand.NewSource(args.Seed))
	loadOpts := []checkpoint.LoadOption{checkpoint.WithRand(rng), checkpoint.WithSubtaskProvider(console)}
	switch {
	case opts.trajFile != "":
		records, err := storage.ReadLog(opts.trajFile)
		if err != nil {
			return err
		}
		cfg.Replay = records
	case opts.agent != "":
		a, err := checkpoint.Load(opts.agent, args.Runtime(), loadOpts...)
		if err != nil {
			return err
		}
		cfg.Agent = a
		mate, err := loadTeammate(opts.teammate, args.Runtime(), rng, loadOpts)
		if err != nil {
			return err
		}
		cfg.Teammate = mate
	}

	store, err := openStore(ctx, args, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	cfg.Store = store

	driver, err := session.New(cfg)
	if err != nil {
		return err
	}
	console.Start()
	res, err := driver.Run(ctx)
	for _, trial := range res.Trials {
		fmt.Fprintf(cmd.OutOrStdout(), "Trial %d finished in %d steps with total reward %g\n", trial.TrialID, trial.Ticks, trial.Score)
	}
	if err != nil {
		return err
	}

	if opts.combine {
		all, err := storage.Combine(ctx, store, args.LayoutName)
		if err != nil {
			return err
		}
		logger.Info("trials combined", slog.String("layout", args.LayoutName), slog.Int("transitions", len(all)))
	}
	return nil
}

// loadTeammate resolves the teammate flag: a scripted random teammate by
// name, otherwise a checkpoint path. Empty means a random teammate.
func loadTeammate(name string, runtime model.RuntimeArgs, rng *rand.Rand, opts []checkpoint.LoadOption) (agent.Agent, error) {
	switch name {
	case "", agent.ScriptedRandom:
		return agent.NewRandomAgent("random_teammate", rng)
	case agent.ScriptedRandomDirection:
		return agent.NewRandomDirectionAgent("random_dir_teammate", rng)
	}
	return checkpoint.Load(name, runtime, opts...)
}
