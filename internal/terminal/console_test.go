package terminal

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oaiagents/internal/action"
	"oaiagents/internal/agent"
	"oaiagents/internal/gridworld"
	"oaiagents/internal/session"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTranslateKey(t *testing.T) {
	cases := []struct {
		name string
		msg  tea.KeyMsg
		want action.Action
	}{
		{"up", tea.KeyMsg{Type: tea.KeyUp}, action.North},
		{"down", tea.KeyMsg{Type: tea.KeyDown}, action.South},
		{"right", tea.KeyMsg{Type: tea.KeyRight}, action.East},
		{"left", tea.KeyMsg{Type: tea.KeyLeft}, action.West},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, action.Interact},
		{"stay", runeKey('s'), action.Stay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := translateKey(tc.msg, false)
			require.True(t, ok)
			assert.False(t, ev.quit)
			assert.Equal(t, -1, ev.subtask)
			assert.Equal(t, tc.want, ev.act)
		})
	}

	_, ok := translateKey(runeKey('z'), false)
	assert.False(t, ok)

	ev, ok := translateKey(tea.KeyMsg{Type: tea.KeyCtrlC}, false)
	require.True(t, ok)
	assert.True(t, ev.quit)
}

func TestTranslateKeyWhilePrompting(t *testing.T) {
	ev, ok := translateKey(runeKey('3'), true)
	require.True(t, ok)
	assert.Equal(t, 3, ev.subtask)

	ev, ok = translateKey(runeKey('v'), true)
	require.True(t, ok)
	assert.Equal(t, 10, ev.subtask)

	_, ok = translateKey(tea.KeyMsg{Type: tea.KeyUp}, true)
	assert.False(t, ok)
}

func TestNextReadsKeyPresses(t *testing.T) {
	c := NewConsole(strings.NewReader(""), io.Discard)
	m := consoleModel{kb: c.kb}

	_, _ = m.Update(runeKey('s'))
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	first, err := c.Next(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, action.Stay, first)
	second, err := c.Next(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, action.West, second)
}

func TestQuitKeyEndsNext(t *testing.T) {
	c := NewConsole(strings.NewReader(""), io.Discard)
	m := consoleModel{kb: c.kb}

	_, cmd := m.Update(runeKey('q'))
	require.NotNil(t, cmd)

	_, err := c.Next(context.Background(), 0)
	require.ErrorIs(t, err, session.ErrQuit)
}

func TestQuitKeyStopsAgentSession(t *testing.T) {
	c := NewConsole(strings.NewReader(""), io.Discard)
	m := consoleModel{kb: c.kb}
	_, _ = m.Update(runeKey('q'))

	select {
	case <-c.Quit():
	default:
		t.Fatal("quit channel not closed")
	}

	env, err := gridworld.NewKitchen("cramped_room", gridworld.WithHorizon(50))
	require.NoError(t, err)
	stay, err := agent.NewScriptedAgent("stay", action.Stay)
	require.NoError(t, err)
	d, err := session.New(session.Config{
		Env:        env,
		Agent:      stay,
		Sleep:      func(time.Duration) {},
		QuitSignal: c.Quit(),
	})
	require.NoError(t, err)
	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Quit)
	assert.Empty(t, res.Trials)
	assert.Empty(t, res.Trajectory)
}

func TestNextHonorsContext(t *testing.T) {
	c := NewConsole(strings.NewReader(""), io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Next(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestViewShowsPrompt(t *testing.T) {
	m := consoleModel{kb: &keyboard{events: make(chan keyEvent, 1), quit: make(chan struct{})}}
	next, _ := m.Update(frameMsg("XXPXX"))
	next, _ = next.Update(promptMsg("next subtask"))
	assert.Equal(t, "XXPXX\nnext subtask\n", next.View())
}

func TestCloseWithoutStart(t *testing.T) {
	c := NewConsole(strings.NewReader(""), io.Discard)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
