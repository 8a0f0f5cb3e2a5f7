package gridworld

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"oaiagents/internal/model"
)

var (
	ErrLayoutExists   = errors.New("layout already registered")
	ErrLayoutNotFound = errors.New("layout not found")
)

// Terrain symbols.
const (
	Floor          = ' '
	Counter        = 'X'
	OnionDispenser = 'O'
	DishDispenser  = 'D'
	Pot            = 'P'
	Serving        = 'S'
	Start1         = '1'
	Start2         = '2'
)

var layoutRegistry = struct {
	mu sync.RWMutex
	m  map[string]model.Grid
}{
	m: make(map[string]model.Grid),
}

func init() {
	initializeBuiltInLayouts()
}

func initializeBuiltInLayouts() {
	MustRegisterLayout("forced_coordination", model.Grid{
		"XXXPX",
		"O X1P",
		"O2X X",
		"D X X",
		"XXXSX",
	})
	MustRegisterLayout("cramped_room", model.Grid{
		"XXPXX",
		"O  2O",
		"X1  X",
		"XDXSX",
	})
	MustRegisterLayout("asymmetric_advantages", model.Grid{
		"XXXXXXXXX",
		"O XSXOX S",
		"X   P 1 X",
		"X2  P   X",
		"XXXDXDXXX",
	})
}

// RegisterLayout adds a layout. Each layout needs exactly one start cell per
// seat.
func RegisterLayout(name string, grid model.Grid) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("layout name is required")
	}
	if _, err := startPositions(grid); err != nil {
		return fmt.Errorf("layout %s: %w", name, err)
	}

	layoutRegistry.mu.Lock()
	defer layoutRegistry.mu.Unlock()

	if _, exists := layoutRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrLayoutExists, name)
	}
	layoutRegistry.m[name] = grid.Clone()
	return nil
}

func MustRegisterLayout(name string, grid model.Grid) {
	if err := RegisterLayout(name, grid); err != nil {
		panic(err)
	}
}

func Layout(name string) (model.Grid, error) {
	layoutRegistry.mu.RLock()
	grid, ok := layoutRegistry.m[name]
	layoutRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
	}
	return grid.Clone(), nil
}

func ListLayouts() []string {
	layoutRegistry.mu.RLock()
	defer layoutRegistry.mu.RUnlock()

	names := make([]string, 0, len(layoutRegistry.m))
	for name := range layoutRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetLayoutsForTests() {
	layoutRegistry.mu.Lock()
	layoutRegistry.m = make(map[string]model.Grid)
	layoutRegistry.mu.Unlock()
	initializeBuiltInLayouts()
}

func startPositions(grid model.Grid) ([2]model.Position, error) {
	var starts [2]model.Position
	var found [2]bool
	for y, row := range grid {
		for x := 0; x < len(row); x++ {
			var seat int
			switch row[x] {
			case Start1:
				seat = 0
			case Start2:
				seat = 1
			default:
				continue
			}
			if found[seat] {
				return starts, fmt.Errorf("duplicate start for seat %d", seat)
			}
			starts[seat] = model.Position{x, y}
			found[seat] = true
		}
	}
	if !found[0] || !found[1] {
		return starts, errors.New("layout needs start cells 1 and 2")
	}
	return starts, nil
}

func walkable(symbol byte) bool {
	return symbol == Floor || symbol == Start1 || symbol == Start2
}
