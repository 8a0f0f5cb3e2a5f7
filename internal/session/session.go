// Package session drives one interactive run of the kitchen: collecting
// human play, playing a loaded agent, or replaying a recorded log.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/gridworld"
	"oaiagents/internal/model"
	"oaiagents/internal/policy"
	"oaiagents/internal/storage"
	"oaiagents/internal/visual"
)

const DefaultFPS = 30

var (
	// ErrQuit is returned by an InputSource when the player asks to stop. It
	// ends a session without being reported as a failure.
	ErrQuit       = errors.New("quit requested")
	ErrAlreadyRun = errors.New("session already run")
)

type Mode int

const (
	ModeCollect Mode = iota
	ModePlay
	ModeReplay
)

func (m Mode) String() string {
	switch m {
	case ModeCollect:
		return "collect"
	case ModePlay:
		return "play"
	case ModeReplay:
		return "replay"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

type Phase int32

const (
	PhaseInit Phase = iota
	PhaseRunning
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseRunning:
		return "running"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// InputSource supplies one seat's action per tick. Next blocks until an
// action is available.
type InputSource interface {
	Next(ctx context.Context, seat int) (action.Action, error)
}

// Display shows rendered frames and releases its resources on Close.
type Display interface {
	Show(frame visual.Frame) error
	Close() error
}

type Config struct {
	Env      gridworld.Environment
	Renderer visual.Renderer
	// Display is optional; without it frames are not rendered.
	Display Display
	Logger  *slog.Logger
	ID      string
	FPS     int
	// Sleep paces PLAY and REPLAY; it defaults to time.Sleep.
	Sleep func(time.Duration)
	// QuitSignal, when closed, stops the session at the next tick boundary
	// in every mode.
	QuitSignal <-chan struct{}

	// COLLECT
	Input InputSource
	Store storage.Store

	// PLAY
	Agent    agent.Agent
	Seat     int
	Teammate agent.Agent

	// REPLAY is selected by a non-nil log.
	Replay storage.Trajectory
}

// TrialSummary is the outcome of one trial played during the session.
type TrialSummary struct {
	TrialID int
	Ticks   int
	Score   float64
}

type Result struct {
	ID     string
	Mode   Mode
	Trials []TrialSummary
	// Trajectory is what the session recorded. REPLAY records nothing.
	Trajectory storage.Trajectory
	Persisted  bool
	Quit       bool
}

// Driver is the session state machine. It is single threaded; only Quit
// may be called from another goroutine.
type Driver struct {
	cfg    Config
	mode   Mode
	logger *slog.Logger

	phase atomic.Int32
	quit  atomic.Bool

	tick      int
	score     float64
	trialID   int
	joint     *action.Joint
	state     policy.State
	log       storage.Log
	trials    []TrialSummary
	persisted bool
}

// New picks the mode from the inputs supplied: a replay log selects REPLAY,
// an agent without a log selects PLAY, and neither selects COLLECT.
func New(cfg Config) (*Driver, error) {
	if cfg.Env == nil {
		return nil, errors.New("session environment is required")
	}
	mode := ModeCollect
	switch {
	case cfg.Replay != nil:
		mode = ModeReplay
	case cfg.Agent != nil:
		mode = ModePlay
	}

	switch mode {
	case ModeCollect:
		if cfg.Input == nil {
			return nil, errors.New("collect session requires an input source")
		}
		if cfg.Store == nil {
			return nil, errors.New("collect session requires a trial store")
		}
	case ModePlay:
		if cfg.Seat < 0 || cfg.Seat > 1 {
			return nil, fmt.Errorf("seat %d out of range", cfg.Seat)
		}
	case ModeReplay:
		cfg.Replay = cfg.Replay.Filter(cfg.Env.LayoutName())
	}

	if cfg.Renderer == nil {
		cfg.Renderer = visual.NewTextRenderer()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Driver{
		cfg:  cfg,
		mode: mode,
		logger: logger.With(
			slog.String("session", cfg.ID),
			slog.String("mode", mode.String()),
			slog.String("layout", cfg.Env.LayoutName()),
		),
	}
	d.phase.Store(int32(PhaseInit))
	return d, nil
}

func (d *Driver) Mode() Mode   { return d.mode }
func (d *Driver) Phase() Phase { return Phase(d.phase.Load()) }
func (d *Driver) Tick() int    { return d.tick }

func (d *Driver) Score() float64 { return d.score }

// Quit asks the session to stop at the next tick boundary.
func (d *Driver) Quit() {
	d.quit.Store(true)
}

func (d *Driver) running(ctx context.Context) bool {
	if d.cfg.QuitSignal != nil {
		select {
		case <-d.cfg.QuitSignal:
			d.quit.Store(true)
		default:
		}
	}
	return !d.quit.Load() && ctx.Err() == nil
}

// Run plays the session to completion. A quit request is not an error; the
// result reports it. The display is closed on every exit path.
func (d *Driver) Run(ctx context.Context) (res Result, err error) {
	if !d.phase.CompareAndSwap(int32(PhaseInit), int32(PhaseRunning)) {
		return Result{}, ErrAlreadyRun
	}
	started := time.Now()
	d.logger.Info("session started")
	defer func() {
		if d.cfg.Display != nil {
			if cerr := d.cfg.Display.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close display: %w", cerr))
			}
		}
		d.phase.Store(int32(PhaseDone))
		sessionsTotal.WithLabelValues(d.mode.String(), outcome(res, err)).Inc()
		d.logger.Info("session finished",
			slog.Int("trials", len(res.Trials)),
			slog.Bool("quit", res.Quit),
			slog.Duration("elapsed", time.Since(started)))
	}()

	switch d.mode {
	case ModeCollect:
		err = d.collect(ctx)
	case ModePlay:
		err = d.play(ctx)
	case ModeReplay:
		err = d.replay(ctx)
	}
	quit := errors.Is(err, ErrQuit) || errors.Is(err, context.Canceled) || d.quit.Load()
	if errors.Is(err, ErrQuit) || errors.Is(err, context.Canceled) {
		err = nil
	}

	res = Result{
		ID:         d.cfg.ID,
		Mode:       d.mode,
		Trials:     append([]TrialSummary(nil), d.trials...),
		Trajectory: d.log.Trajectory(),
		Persisted:  d.persisted,
		Quit:       quit,
	}
	return res, err
}

func outcome(res Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case res.Quit:
		return "quit"
	}
	return "ok"
}

// render shows the current state if a display is attached. seat is the
// seat awaiting input, or -1.
func (d *Driver) render(seat int) error {
	if d.cfg.Display == nil {
		return nil
	}
	in := visual.Input{
		State: d.cfg.Env.State(),
		Grid:  d.cfg.Env.Grid(),
		HUD: visual.HUD{
			Mode:     d.mode.String(),
			Score:    d.score,
			TimeLeft: model.TimeLeft(d.cfg.Env.Horizon(), d.tick, d.cfg.FPS),
			Tick:     d.tick,
			TrialID:  d.trialID,
		},
		PrevJoint: d.joint,
	}
	if seat >= 0 {
		in.Seat = &seat
	}
	frame, err := d.cfg.Renderer.Render(in)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return d.cfg.Display.Show(frame)
}

func (d *Driver) pace() {
	d.cfg.Sleep(time.Second / time.Duration(d.cfg.FPS))
}

// advance steps the environment result into the session counters and, when
// record is set, appends the transition.
func (d *Driver) advance(prev model.State, joint action.Joint, res gridworld.StepResult, record bool) {
	reward := res.Info.SparseTotal()
	d.score += reward
	if record {
		env := d.cfg.Env
		d.log.Append(model.Transition{
			State:       prev,
			JointAction: model.EncodedJoint(joint.Text()),
			Reward:      reward,
			TimeLeft:    model.TimeLeft(env.Horizon(), d.tick, d.cfg.FPS),
			Score:       d.score,
			TimeElapsed: model.TimeElapsed(d.tick, d.cfg.FPS),
			Tick:        d.tick,
			Layout:      env.Grid(),
			LayoutName:  env.LayoutName(),
			TrialID:     d.trialID,
		})
	}
	d.joint = &joint
	d.tick++
	ticksTotal.WithLabelValues(d.mode.String()).Inc()
}

// finishTrial closes the running trial and resets the counters.
func (d *Driver) finishTrial() {
	d.trials = append(d.trials, TrialSummary{TrialID: d.trialID, Ticks: d.tick, Score: d.score})
	trialsTotal.WithLabelValues(d.mode.String()).Inc()
	d.logger.Info("trial finished",
		slog.Int("trial_id", d.trialID),
		slog.Int("ticks", d.tick),
		slog.Float64("score", d.score))
	d.tick = 0
	d.score = 0
	d.joint = nil
}
