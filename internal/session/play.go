package session

import (
	"context"
	"fmt"

	"oaiagents/internal/action"
)

// play lets the configured agent drive its seat; the teammate bound to the
// environment plays the other one.
func (d *Driver) play(ctx context.Context) error {
	env := d.cfg.Env
	seat := d.cfg.Seat
	if d.cfg.Teammate != nil {
		env.SetTeammate(d.cfg.Teammate)
	}
	d.cfg.Agent.Bind(seat)
	d.trialID = 1

	if _, err := env.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	d.state = nil
	for first := true; d.running(ctx) && !env.Done(); first = false {
		obs, err := env.Observe(seat, first)
		if err != nil {
			return fmt.Errorf("observe: %w", err)
		}
		idx, next, err := d.cfg.Agent.Predict(obs, d.state, first, true)
		if err != nil {
			return fmt.Errorf("predict: %w", err)
		}
		d.state = next
		act, err := action.FromIndex(idx)
		if err != nil {
			return err
		}

		d.pace()
		if err := d.render(-1); err != nil {
			return err
		}
		prev := env.State()
		joint, res, err := env.StepSeat(seat, act)
		if err != nil {
			return fmt.Errorf("step %d: %w", d.tick, err)
		}
		d.advance(prev, joint, res, true)
	}
	if d.tick > 0 {
		d.finishTrial()
	}
	return nil
}
