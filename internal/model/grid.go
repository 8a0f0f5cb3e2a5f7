package model

import (
	"encoding/json"
	"strings"
)

// Grid is a terrain layout as rows of symbols.
type Grid []string

// UnmarshalJSON also accepts the legacy encoding where each row is a list of
// single-symbol strings.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows []string
	if err := json.Unmarshal(data, &rows); err == nil {
		*g = rows
		return nil
	}
	var cells [][]string
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	out := make(Grid, len(cells))
	for i, row := range cells {
		out[i] = strings.Join(row, "")
	}
	*g = out
	return nil
}

func (g Grid) Clone() Grid {
	return append(Grid(nil), g...)
}

func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// At returns the terrain symbol at pos, treating out-of-range cells as walls.
func (g Grid) At(pos Position) byte {
	x, y := pos[0], pos[1]
	if y < 0 || y >= len(g) || x < 0 || x >= len(g[y]) {
		return 'X'
	}
	return g[y][x]
}
