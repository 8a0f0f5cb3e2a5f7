package gridworld

import (
	"errors"
	"fmt"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/encoding"
	"oaiagents/internal/model"
)

const (
	DefaultHorizon  = 1200
	DefaultCookTime = 20
	SoupOnions      = 3
	DeliveryReward  = 20
)

var ErrEpisodeDone = errors.New("episode is done")

// Kitchen is the reference two-seat cooking game: carry onions to a pot,
// wait for the soup to cook, plate it and serve it. Held objects carry a zero
// position; objects on the grid carry their cell.
type Kitchen struct {
	layoutName string
	grid       model.Grid
	starts     [2]model.Position
	horizon    int
	cookTime   int
	encodingFn string
	encode     encoding.Func

	state     model.State
	completed [2]int
	teammate  agent.Agent
}

type Option func(*Kitchen)

func WithHorizon(ticks int) Option {
	return func(k *Kitchen) { k.horizon = ticks }
}

func WithCookTime(ticks int) Option {
	return func(k *Kitchen) { k.cookTime = ticks }
}

func WithEncoding(name string) Option {
	return func(k *Kitchen) { k.encodingFn = name }
}

// NewKitchen builds the registered layout and resets it.
func NewKitchen(layoutName string, opts ...Option) (*Kitchen, error) {
	grid, err := Layout(layoutName)
	if err != nil {
		return nil, err
	}
	starts, err := startPositions(grid)
	if err != nil {
		return nil, err
	}
	k := &Kitchen{
		layoutName: layoutName,
		grid:       grid,
		starts:     starts,
		horizon:    DefaultHorizon,
		cookTime:   DefaultCookTime,
		encodingFn: encoding.Flat,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.horizon <= 0 {
		return nil, fmt.Errorf("horizon must be > 0, got %d", k.horizon)
	}
	k.encode, err = encoding.ResolveForLayout(k.encodingFn, layoutName)
	if err != nil {
		return nil, err
	}
	if _, err := k.Reset(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kitchen) LayoutName() string { return k.layoutName }
func (k *Kitchen) Grid() model.Grid   { return k.grid.Clone() }
func (k *Kitchen) Horizon() int       { return k.horizon }
func (k *Kitchen) State() model.State { return k.state.Clone() }
func (k *Kitchen) Done() bool         { return k.state.Timestep >= k.horizon }

func (k *Kitchen) Reset() (model.State, error) {
	k.state = model.State{
		LayoutName: k.layoutName,
		Players: []model.PlayerState{
			{Position: k.starts[0], Orientation: model.Position{0, -1}},
			{Position: k.starts[1], Orientation: model.Position{0, -1}},
		},
		Objects: []model.ObjectState{},
	}
	k.completed = [2]int{-1, -1}
	return k.state.Clone(), nil
}

func (k *Kitchen) SetTeammate(a agent.Agent) {
	k.teammate = a
}

// StepSeat steps with act for seat and the teammate's action for the other
// seat. Without a teammate the other seat stays.
func (k *Kitchen) StepSeat(seat int, act action.Action) (action.Joint, StepResult, error) {
	if seat < 0 || seat > 1 {
		return action.Joint{}, StepResult{}, fmt.Errorf("seat %d out of range", seat)
	}
	other := action.Stay
	if k.teammate != nil {
		if s, ok := k.teammate.Seat(); !ok || s != 1-seat {
			k.teammate.Bind(1 - seat)
		}
		var err error
		other, err = agent.Act(k.teammate, k.state)
		if err != nil {
			return action.Joint{}, StepResult{}, fmt.Errorf("teammate action: %w", err)
		}
	}
	var joint action.Joint
	joint[seat] = act
	joint[1-seat] = other
	res, err := k.Step(joint)
	return joint, res, err
}

func (k *Kitchen) Step(joint action.Joint) (StepResult, error) {
	if k.Done() {
		return StepResult{}, ErrEpisodeDone
	}
	for i, a := range joint {
		if !a.Valid() {
			return StepResult{}, fmt.Errorf("%w: seat %d", action.ErrValidation, i)
		}
	}

	info := Info{CompletedSubtasks: [2]int{-1, -1}}
	k.move(joint)
	for seat, a := range joint {
		if a != action.Interact {
			continue
		}
		reward, subtask := k.interact(seat)
		info.SparseRewardByAgent[seat] = reward
		info.CompletedSubtasks[seat] = subtask
	}
	k.cook()
	k.state.Timestep++
	k.completed = info.CompletedSubtasks

	return StepResult{Reward: info.SparseTotal(), Done: k.Done(), Info: info}, nil
}

// move applies both movement actions at once. A seat that would enter a
// non-walkable cell, the other seat's target, or swap with the other seat
// stays in place; its orientation still turns.
func (k *Kitchen) move(joint action.Joint) {
	var target [2]model.Position
	for seat, a := range joint {
		p := &k.state.Players[seat]
		target[seat] = p.Position
		dx, dy, ok := a.Direction()
		if !ok || (dx == 0 && dy == 0) {
			continue
		}
		p.Orientation = model.Position{dx, dy}
		next := p.Position.Add(dx, dy)
		if walkable(k.grid.At(next)) {
			target[seat] = next
		}
	}

	cur := [2]model.Position{k.state.Players[0].Position, k.state.Players[1].Position}
	if target[0] == target[1] || (target[0] == cur[1] && target[1] == cur[0]) {
		return
	}
	for seat := range target {
		if target[seat] == cur[1-seat] && target[1-seat] == cur[1-seat] {
			target[seat] = cur[seat]
		}
	}
	k.state.Players[0].Position = target[0]
	k.state.Players[1].Position = target[1]
}

// interact resolves seat's interaction with the cell it faces and returns the
// sparse reward and the completed subtask, or -1.
func (k *Kitchen) interact(seat int) (float64, int) {
	p := &k.state.Players[seat]
	facing := p.Position.Add(p.Orientation[0], p.Orientation[1])
	held := p.HeldObject

	switch k.grid.At(facing) {
	case OnionDispenser:
		if held == nil {
			p.HeldObject = &model.ObjectState{Name: model.ObjectOnion}
			return 0, model.SubtaskGetOnionFromDispenser
		}
	case DishDispenser:
		if held == nil {
			p.HeldObject = &model.ObjectState{Name: model.ObjectDish}
			return 0, model.SubtaskGetPlateFromDishRack
		}
	case Pot:
		return k.usePot(p, facing)
	case Serving:
		if held != nil && held.Name == model.ObjectSoup {
			p.HeldObject = nil
			return DeliveryReward, model.SubtaskServeSoup
		}
	case Counter:
		return 0, k.useCounter(p, facing)
	}
	return 0, -1
}

func (k *Kitchen) usePot(p *model.PlayerState, pot model.Position) (float64, int) {
	idx := k.state.ObjectAt(pot)
	held := p.HeldObject
	switch {
	case held != nil && held.Name == model.ObjectOnion:
		if idx < 0 {
			k.state.Objects = append(k.state.Objects, model.ObjectState{
				Name: model.ObjectSoup, Position: pot, Ingredients: 1,
			})
			p.HeldObject = nil
			return 0, model.SubtaskPutOnionInPot
		}
		soup := &k.state.Objects[idx]
		if soup.Ingredients < SoupOnions {
			soup.Ingredients++
			p.HeldObject = nil
			return 0, model.SubtaskPutOnionInPot
		}
	case held != nil && held.Name == model.ObjectDish:
		if idx >= 0 && k.ready(k.state.Objects[idx]) {
			soup := k.state.Objects[idx]
			soup.Position = model.Position{}
			p.HeldObject = &soup
			k.removeObject(idx)
			return 0, model.SubtaskGetSoup
		}
	}
	return 0, -1
}

func (k *Kitchen) useCounter(p *model.PlayerState, counter model.Position) int {
	idx := k.state.ObjectAt(counter)
	if p.HeldObject != nil && idx < 0 {
		obj := *p.HeldObject
		obj.Position = counter
		k.state.Objects = append(k.state.Objects, obj)
		p.HeldObject = nil
		switch obj.Name {
		case model.ObjectOnion:
			return model.SubtaskPutOnionCloser
		case model.ObjectDish:
			return model.SubtaskPutPlateCloser
		default:
			return model.SubtaskPutSoupCloser
		}
	}
	if p.HeldObject == nil && idx >= 0 {
		obj := k.state.Objects[idx]
		obj.Position = model.Position{}
		p.HeldObject = &obj
		k.removeObject(idx)
		switch obj.Name {
		case model.ObjectOnion:
			return model.SubtaskGetOnionFromCounter
		case model.ObjectDish:
			return model.SubtaskGetPlateFromCounter
		default:
			return model.SubtaskGetSoupFromCounter
		}
	}
	return -1
}

func (k *Kitchen) cook() {
	for i := range k.state.Objects {
		obj := &k.state.Objects[i]
		if obj.Name != model.ObjectSoup || k.grid.At(obj.Position) != Pot {
			continue
		}
		if obj.Ingredients >= SoupOnions && obj.CookTick < k.cookTime {
			obj.CookTick++
		}
	}
}

func (k *Kitchen) ready(soup model.ObjectState) bool {
	return soup.Name == model.ObjectSoup && soup.Ingredients >= SoupOnions && soup.CookTick >= k.cookTime
}

func (k *Kitchen) removeObject(idx int) {
	k.state.Objects = append(k.state.Objects[:idx], k.state.Objects[idx+1:]...)
}

// Observe adds the completion signals and the subtask mask to the encoded
// state.
func (k *Kitchen) Observe(seat int, onReset bool) (model.Observation, error) {
	obs, err := k.encode(k.state, seat)
	if err != nil {
		return nil, err
	}
	player := make([]float64, model.NumSubtasks)
	teammate := make([]float64, model.NumSubtasks)
	if !onReset {
		player = model.OneHot(model.NumSubtasks, k.completed[seat])
		teammate = model.OneHot(model.NumSubtasks, k.completed[1-seat])
	}
	obs[model.ObsPlayerCompletedSubtasks] = player
	obs[model.ObsTeammateCompletedSubtasks] = teammate
	obs[model.ObsSubtaskMask] = k.subtaskMask(seat)
	return obs, nil
}

func (k *Kitchen) subtaskMask(seat int) []float64 {
	mask := make([]float64, model.NumSubtasks)
	held := k.state.Players[seat].HeldObject
	if held == nil {
		mask[model.SubtaskGetOnionFromDispenser] = 1
		mask[model.SubtaskGetPlateFromDishRack] = 1
		for _, obj := range k.state.Objects {
			if k.grid.At(obj.Position) != Counter {
				continue
			}
			switch obj.Name {
			case model.ObjectOnion:
				mask[model.SubtaskGetOnionFromCounter] = 1
			case model.ObjectDish:
				mask[model.SubtaskGetPlateFromCounter] = 1
			case model.ObjectSoup:
				mask[model.SubtaskGetSoupFromCounter] = 1
			}
		}
		return mask
	}
	switch held.Name {
	case model.ObjectOnion:
		mask[model.SubtaskPutOnionInPot] = 1
		mask[model.SubtaskPutOnionCloser] = 1
	case model.ObjectDish:
		mask[model.SubtaskGetSoup] = 1
		mask[model.SubtaskPutPlateCloser] = 1
	case model.ObjectSoup:
		mask[model.SubtaskServeSoup] = 1
		mask[model.SubtaskPutSoupCloser] = 1
	}
	return mask
}
