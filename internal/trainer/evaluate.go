package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/gridworld"
	"oaiagents/internal/policy"
)

// EvaluateConfig selects which owned agents play and how.
type EvaluateConfig struct {
	Episodes int
	// Seats holds the trainer index playing each seat.
	Seats         [2]int
	Deterministic bool
}

type EvaluateResult struct {
	Returns    []float64
	Ticks      []int
	MeanReturn float64
}

// Evaluate plays cfg.Episodes full episodes with the selected agents and
// reports the sparse return of each. Recurrent state is threaded per seat
// and reset at every episode start.
func (t *Trainer) Evaluate(ctx context.Context, env gridworld.Environment, cfg EvaluateConfig) (EvaluateResult, error) {
	if cfg.Episodes <= 0 {
		return EvaluateResult{}, errors.New("episodes must be positive")
	}
	var seats [2]agent.Agent
	for seat, idx := range cfg.Seats {
		a, err := t.Agent(idx)
		if err != nil {
			return EvaluateResult{}, err
		}
		a.Bind(seat)
		seats[seat] = a
	}

	result := EvaluateResult{
		Returns: make([]float64, 0, cfg.Episodes),
		Ticks:   make([]int, 0, cfg.Episodes),
	}
	for ep := 0; ep < cfg.Episodes; ep++ {
		ret, ticks, err := runEpisode(ctx, env, seats, cfg.Deterministic)
		if err != nil {
			return result, fmt.Errorf("episode %d: %w", ep, err)
		}
		result.Returns = append(result.Returns, ret)
		result.Ticks = append(result.Ticks, ticks)
		t.logger.Debug("episode evaluated", slog.Int("episode", ep), slog.Float64("return", ret), slog.Int("ticks", ticks))
	}
	total := 0.0
	for _, r := range result.Returns {
		total += r
	}
	result.MeanReturn = total / float64(len(result.Returns))
	return result, nil
}

func runEpisode(ctx context.Context, env gridworld.Environment, seats [2]agent.Agent, deterministic bool) (float64, int, error) {
	if _, err := env.Reset(); err != nil {
		return 0, 0, err
	}
	var states [2]policy.State
	ret := 0.0
	ticks := 0
	for first := true; !env.Done(); first = false {
		if err := ctx.Err(); err != nil {
			return ret, ticks, err
		}
		var joint action.Joint
		for seat, a := range seats {
			obs, err := env.Observe(seat, first)
			if err != nil {
				return ret, ticks, err
			}
			idx, next, err := a.Predict(obs, states[seat], first, deterministic)
			if err != nil {
				return ret, ticks, err
			}
			states[seat] = next
			act, err := action.FromIndex(idx)
			if err != nil {
				return ret, ticks, err
			}
			joint[seat] = act
		}
		res, err := env.Step(joint)
		if err != nil {
			return ret, ticks, err
		}
		ret += res.Info.SparseTotal()
		ticks++
	}
	return ret, ticks, nil
}
