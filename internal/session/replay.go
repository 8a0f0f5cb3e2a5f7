package session

import (
	"context"
	"fmt"

	"oaiagents/internal/action"
)

// replay steps the environment with the joint actions of a recorded log. A
// record from another trial, or one arriving after the environment is done,
// resets the environment and is not stepped itself.
func (d *Driver) replay(ctx context.Context) error {
	env := d.cfg.Env
	records := d.cfg.Replay
	if len(records) == 0 {
		return nil
	}
	if _, err := env.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	d.trialID = records[0].TrialID

	for i, rec := range records {
		if !d.running(ctx) {
			if d.tick > 0 {
				d.finishTrial()
			}
			return nil
		}
		if rec.TrialID != d.trialID || env.Done() {
			d.finishTrial()
			if _, err := env.Reset(); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			d.trialID = rec.TrialID
			continue
		}

		if err := d.render(-1); err != nil {
			return err
		}
		d.pace()
		joint, err := action.ParseJoint(string(rec.JointAction))
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		prev := env.State()
		res, err := env.Step(joint)
		if err != nil {
			return fmt.Errorf("record %d: step: %w", i, err)
		}
		d.advance(prev, joint, res, false)
	}
	d.finishTrial()
	return nil
}
