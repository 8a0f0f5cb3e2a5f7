// Package visual turns a kitchen snapshot into a displayable frame. Rendering
// has no side effects; displaying a frame is the caller's job.
package visual

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"oaiagents/internal/action"
	"oaiagents/internal/model"
)

var ErrEmptyGrid = errors.New("grid is empty")

// HUD is the status line drawn under the grid.
type HUD struct {
	Mode     string
	Score    float64
	TimeLeft float64
	Tick     int
	TrialID  int
}

type Input struct {
	State model.State
	Grid  model.Grid
	// Seat is the seat controlled locally, highlighted when set.
	Seat      *int
	HUD       HUD
	PrevJoint *action.Joint
}

// Frame is a rendered picture. Plain holds the unstyled rows; Styled is the
// same picture with terminal styling applied.
type Frame struct {
	Plain  []string
	Styled string
}

func (f Frame) String() string {
	return strings.Join(f.Plain, "\n")
}

type Renderer interface {
	Render(in Input) (Frame, error)
}

// Cell glyphs for objects lying on the grid.
const (
	glyphOnion = 'o'
	glyphDish  = 'd'
	glyphSoup  = 's'
	glyphFloor = ' '
)

type TextRenderer struct {
	wall     lipgloss.Style
	station  lipgloss.Style
	object   lipgloss.Style
	player   lipgloss.Style
	selected lipgloss.Style
	hud      lipgloss.Style
}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{
		wall:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		station:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		object:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		player:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("205")).Bold(true),
		hud:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}

func (r *TextRenderer) Render(in Input) (Frame, error) {
	if len(in.Grid) == 0 {
		return Frame{}, ErrEmptyGrid
	}
	width := in.Grid.Width()
	cells := make([][]byte, len(in.Grid))
	for y, row := range in.Grid {
		cells[y] = []byte(fmt.Sprintf("%-*s", width, row))
		for x, c := range cells[y] {
			if c == '1' || c == '2' {
				cells[y][x] = glyphFloor
			}
		}
	}
	set := func(pos model.Position, glyph byte) error {
		x, y := pos[0], pos[1]
		if y < 0 || y >= len(cells) || x < 0 || x >= width {
			return fmt.Errorf("position %v outside %dx%d grid", pos, width, len(cells))
		}
		cells[y][x] = glyph
		return nil
	}

	for _, obj := range in.State.Objects {
		if err := set(obj.Position, objectGlyph(obj)); err != nil {
			return Frame{}, err
		}
	}
	for i, p := range in.State.Players {
		if err := set(p.Position, byte('1'+i)); err != nil {
			return Frame{}, err
		}
	}

	plain := make([]string, 0, len(cells)+2)
	var styled strings.Builder
	for _, row := range cells {
		plain = append(plain, string(row))
		for _, c := range row {
			styled.WriteString(r.styleCell(c, in.Seat))
		}
		styled.WriteByte('\n')
	}

	status := hudLine(in.HUD, in.State.Players)
	plain = append(plain, status)
	styled.WriteString(r.hud.Render(status))
	if in.PrevJoint != nil {
		last := "joint: " + in.PrevJoint.Text()
		plain = append(plain, last)
		styled.WriteByte('\n')
		styled.WriteString(r.hud.Render(last))
	}
	return Frame{Plain: plain, Styled: styled.String()}, nil
}

func (r *TextRenderer) styleCell(c byte, seat *int) string {
	s := string(c)
	switch c {
	case 'X':
		return r.wall.Render(s)
	case 'P', 'O', 'D', 'S':
		return r.station.Render(s)
	case glyphOnion, glyphDish, glyphSoup:
		return r.object.Render(s)
	case '1', '2':
		if seat != nil && int(c-'1') == *seat {
			return r.selected.Render(s)
		}
		return r.player.Render(s)
	}
	return s
}

func objectGlyph(obj model.ObjectState) byte {
	switch obj.Name {
	case model.ObjectOnion:
		return glyphOnion
	case model.ObjectDish:
		return glyphDish
	case model.ObjectSoup:
		return glyphSoup
	}
	return '?'
}

func hudLine(h HUD, players []model.PlayerState) string {
	parts := make([]string, 0, 6)
	if h.Mode != "" {
		parts = append(parts, h.Mode)
	}
	if h.TrialID > 0 {
		parts = append(parts, fmt.Sprintf("trial %d", h.TrialID))
	}
	parts = append(parts,
		fmt.Sprintf("score %g", h.Score),
		fmt.Sprintf("time left %.1fs", h.TimeLeft),
		fmt.Sprintf("tick %d", h.Tick),
	)
	for i, p := range players {
		held := "-"
		if p.HeldObject != nil {
			held = p.HeldObject.Name
		}
		parts = append(parts, fmt.Sprintf("p%d:%s", i+1, held))
	}
	return strings.Join(parts, " | ")
}
