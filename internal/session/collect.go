package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"oaiagents/internal/action"
	"oaiagents/internal/storage"
)

// collect asks the input source for both seats every tick and records the
// result. Whatever was recorded is flushed on every exit path.
func (d *Driver) collect(ctx context.Context) (err error) {
	env := d.cfg.Env
	layout := env.LayoutName()

	d.trialID, err = storage.NextTrialID(ctx, d.cfg.Store, layout)
	if err != nil {
		return fmt.Errorf("next trial id: %w", err)
	}
	defer func() {
		if ferr := d.flush(ctx, layout); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()

	if _, err := env.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	for d.running(ctx) && !env.Done() {
		var joint action.Joint
		for seat := range joint {
			if err := d.render(seat); err != nil {
				return err
			}
			waitStart := time.Now()
			act, err := d.cfg.Input.Next(ctx, seat)
			inputWait.Observe(time.Since(waitStart).Seconds())
			if err != nil {
				return err
			}
			joint[seat] = act
		}
		prev := env.State()
		res, err := env.Step(joint)
		if err != nil {
			return fmt.Errorf("step %d: %w", d.tick, err)
		}
		d.advance(prev, joint, res, true)
	}
	return nil
}

// flush persists the recorded trial when it holds at least one transition.
func (d *Driver) flush(ctx context.Context, layout string) error {
	if d.log.Len() == 0 {
		return nil
	}
	d.finishTrial()
	records := d.log.Trajectory()
	if err := d.cfg.Store.SaveTrial(context.WithoutCancel(ctx), layout, d.trialID, records); err != nil {
		return fmt.Errorf("save trial %s.%d: %w", layout, d.trialID, err)
	}
	d.persisted = true
	transitionsPersisted.Add(float64(len(records)))
	d.logger.Info("trajectory flushed", slog.Int("trial_id", d.trialID), slog.Int("transitions", len(records)))
	return nil
}
