package encoding

import (
	"fmt"

	"oaiagents/internal/model"
)

const (
	Flat     = "flat"
	Relative = "relative"
)

// playerFeatures is x, y, orientation dx, dy, and a one-hot over
// {nothing, onion, dish, soup} held.
const playerFeatures = 8

// FlatSize is the agent_obs length of the flat and relative encodings: both
// players (own seat first) followed by loose object count, soup count and the
// fullest soup's onion count.
const FlatSize = 2*playerFeatures + 3

var heldSlots = map[string]int{
	model.ObjectOnion: 1,
	model.ObjectDish:  2,
	model.ObjectSoup:  3,
}

func encodeFlat(state model.State, seat int) (model.Observation, error) {
	return encode(state, seat, false)
}

// encodeRelative expresses the teammate's position as an offset from the
// encoded seat.
func encodeRelative(state model.State, seat int) (model.Observation, error) {
	return encode(state, seat, true)
}

func encode(state model.State, seat int, relative bool) (model.Observation, error) {
	if len(state.Players) != 2 {
		return nil, fmt.Errorf("expected 2 players, got %d", len(state.Players))
	}
	if seat < 0 || seat > 1 {
		return nil, fmt.Errorf("%w: %d", ErrSeat, seat)
	}

	out := make([]float64, 0, FlatSize)
	self := state.Players[seat]
	other := state.Players[1-seat]
	out = appendPlayer(out, self, model.Position{})
	if relative {
		out = appendPlayer(out, other, self.Position)
	} else {
		out = appendPlayer(out, other, model.Position{})
	}

	soups, fullest := 0, 0
	for _, obj := range state.Objects {
		if obj.Name != model.ObjectSoup {
			continue
		}
		soups++
		if obj.Ingredients > fullest {
			fullest = obj.Ingredients
		}
	}
	out = append(out, float64(len(state.Objects)), float64(soups), float64(fullest))
	return model.Observation{model.ObsAgent: out}, nil
}

func appendPlayer(out []float64, p model.PlayerState, origin model.Position) []float64 {
	held := make([]float64, 4)
	slot := 0
	if p.HeldObject != nil {
		slot = heldSlots[p.HeldObject.Name]
	}
	held[slot] = 1
	out = append(out,
		float64(p.Position[0]-origin[0]),
		float64(p.Position[1]-origin[1]),
		float64(p.Orientation[0]),
		float64(p.Orientation[1]),
	)
	return append(out, held...)
}
