package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodedJoint is the persisted text of a joint action. It is written as a
// raw JSON array and read back from either an array or a string.
type EncodedJoint string

func (e EncodedJoint) MarshalJSON() ([]byte, error) {
	raw := bytes.TrimSpace([]byte(e))
	if len(raw) > 0 && raw[0] == '[' && json.Valid(raw) {
		return raw, nil
	}
	return json.Marshal(string(e))
}

func (e *EncodedJoint) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		*e = EncodedJoint(text)
		return nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return err
	}
	*e = EncodedJoint(compact.String())
	return nil
}

// Transition is one recorded game tick.
type Transition struct {
	State       State        `json:"state"`
	JointAction EncodedJoint `json:"joint_action"`
	Reward      float64      `json:"reward"`
	TimeLeft    float64      `json:"time_left"`
	Score       float64      `json:"score"`
	TimeElapsed float64      `json:"time_elapsed"`
	Tick        int          `json:"cur_gameloop"`
	Layout      Grid         `json:"layout"`
	LayoutName  string       `json:"layout_name"`
	TrialID     int          `json:"trial_id"`
}

// UnmarshalJSON accepts previous-state snapshots stored either as objects or
// as JSON-encoded strings.
func (t *Transition) UnmarshalJSON(data []byte) error {
	type plain Transition
	var wire struct {
		plain
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*t = Transition(wire.plain)
	t.State = State{}

	raw := bytes.TrimSpace(wire.State)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return fmt.Errorf("decode state text: %w", err)
		}
		raw = []byte(text)
	}
	if err := json.Unmarshal(raw, &t.State); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return nil
}

// TimeLeft returns max((horizon - tick) / fps, 0).
func TimeLeft(horizon, tick, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	left := float64(horizon-tick) / float64(fps)
	if left < 0 {
		return 0
	}
	return left
}

// TimeElapsed returns tick / fps.
func TimeElapsed(tick, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(tick) / float64(fps)
}
