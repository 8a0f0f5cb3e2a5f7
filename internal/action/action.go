// Package action defines the fixed per-seat action set of the kitchen
// grid-world, the index<->action table used by policies, and the textual
// encoding of joint actions found in persisted trajectory logs.
package action

import (
	"encoding/json"
	"fmt"
)

// Action is one seat's move for a single tick.
type Action int

const (
	North Action = iota
	South
	East
	West
	Stay
	Interact
)

// NumActions is the size of the legal action set.
const NumActions = 6

var all = [NumActions]Action{North, South, East, West, Stay, Interact}

var directions = map[Action][2]int{
	North: {0, -1},
	South: {0, 1},
	East:  {1, 0},
	West:  {-1, 0},
	Stay:  {0, 0},
}

var names = map[Action]string{
	North:    "north",
	South:    "south",
	East:     "east",
	West:     "west",
	Stay:     "stay",
	Interact: "interact",
}

// All returns the legal actions in index order.
func All() []Action {
	out := make([]Action, NumActions)
	copy(out, all[:])
	return out
}

// FromIndex maps a policy output index back to a concrete action.
func FromIndex(index int) (Action, error) {
	if index < 0 || index >= NumActions {
		return 0, fmt.Errorf("%w: action index %d out of range [0,%d)", ErrValidation, index, NumActions)
	}
	return all[index], nil
}

// Index is the policy-facing index of the action.
func (a Action) Index() int {
	return int(a)
}

// Valid reports whether a is a member of the legal action set.
func (a Action) Valid() bool {
	return a >= North && a <= Interact
}

// Direction returns the grid offset of a movement action. Interact has none.
func (a Action) Direction() (dx, dy int, ok bool) {
	d, ok := directions[a]
	if !ok {
		return 0, 0, false
	}
	return d[0], d[1], true
}

func (a Action) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalJSON writes movement actions as [dx,dy] pairs and interact as a
// string, the encoding persisted trajectory logs use.
func (a Action) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrValidation, int(a))
	}
	if dx, dy, ok := a.Direction(); ok {
		return json.Marshal([2]int{dx, dy})
	}
	return json.Marshal(InteractAlias)
}

func (a *Action) UnmarshalJSON(data []byte) error {
	parsed, err := defaultParser.parseElement(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// FromName resolves the lowercase name printed by String.
func FromName(name string) (Action, error) {
	canonical := CanonicalAlias(name)
	for act, n := range names {
		if n == canonical {
			return act, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown action name %q", ErrValidation, name)
}

func fromDirection(dx, dy int) (Action, bool) {
	for act, d := range directions {
		if d[0] == dx && d[1] == dy {
			return act, true
		}
	}
	return 0, false
}

// Joint is the pair of per-seat actions applied in one tick.
type Joint [2]Action

// Text renders the joint action in its persisted form, e.g. [[0,-1],"interact"].
func (j Joint) Text() string {
	data, err := json.Marshal([2]Action{j[0], j[1]})
	if err != nil {
		return fmt.Sprintf("[%s,%s]", j[0], j[1])
	}
	return string(data)
}

func (j Joint) String() string {
	return j.Text()
}
