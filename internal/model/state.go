package model

// Position is an (x, y) grid coordinate; y grows downward.
type Position [2]int

func (p Position) Add(dx, dy int) Position {
	return Position{p[0] + dx, p[1] + dy}
}

// Object names carried by players or placed on the grid.
const (
	ObjectOnion = "onion"
	ObjectDish  = "dish"
	ObjectSoup  = "soup"
)

// ObjectState is an object on the grid or in a player's hands. Soups track
// the onions they hold and how long they have been cooking.
type ObjectState struct {
	Name        string   `json:"name"`
	Position    Position `json:"position"`
	Ingredients int      `json:"ingredients,omitempty"`
	CookTick    int      `json:"cook_tick,omitempty"`
}

// PlayerState is one seat's body in the world.
type PlayerState struct {
	Position    Position     `json:"position"`
	Orientation Position     `json:"orientation"`
	HeldObject  *ObjectState `json:"held_object,omitempty"`
}

// State is the semantic snapshot of the kitchen at one tick.
type State struct {
	LayoutName string        `json:"layout_name"`
	Players    []PlayerState `json:"players"`
	Objects    []ObjectState `json:"objects"`
	Timestep   int           `json:"timestep"`
}

// Clone returns a deep copy so recorded snapshots never alias live state.
func (s State) Clone() State {
	out := State{
		LayoutName: s.LayoutName,
		Timestep:   s.Timestep,
		Players:    make([]PlayerState, len(s.Players)),
	}
	if s.Objects != nil {
		out.Objects = make([]ObjectState, len(s.Objects))
		copy(out.Objects, s.Objects)
	}
	for i, p := range s.Players {
		out.Players[i] = p
		if p.HeldObject != nil {
			held := *p.HeldObject
			out.Players[i].HeldObject = &held
		}
	}
	return out
}

// ObjectAt returns the index of the object lying at pos, or -1.
func (s State) ObjectAt(pos Position) int {
	for i, obj := range s.Objects {
		if obj.Position == pos {
			return i
		}
	}
	return -1
}
