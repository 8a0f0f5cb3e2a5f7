// Package terminal is the interactive front end of a session: a bubbletea
// program that shows rendered frames and turns key presses into actions.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"oaiagents/internal/action"
	"oaiagents/internal/model"
	"oaiagents/internal/session"
	"oaiagents/internal/visual"
)

var ErrClosed = errors.New("console is closed")

// subtaskKeys maps the subtask chooser keys to subtask ids by position.
const subtaskKeys = "0123456789v"

type keyEvent struct {
	act     action.Action
	subtask int
	quit    bool
}

type frameMsg string
type promptMsg string

// keyboard is shared between the bubbletea model and the Console.
type keyboard struct {
	events   chan keyEvent
	quit     chan struct{}
	quitOnce sync.Once
}

func (k *keyboard) signalQuit() {
	k.quitOnce.Do(func() { close(k.quit) })
}

func (k *keyboard) push(ev keyEvent) {
	select {
	case k.events <- ev:
	default:
	}
}

type consoleModel struct {
	kb     *keyboard
	frame  string
	prompt string
}

func (m consoleModel) Init() tea.Cmd { return nil }

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = string(msg)
	case promptMsg:
		m.prompt = string(msg)
	case tea.KeyMsg:
		ev, ok := translateKey(msg, m.prompt != "")
		if !ok {
			return m, nil
		}
		if ev.quit {
			m.kb.signalQuit()
			return m, tea.Quit
		}
		m.kb.push(ev)
	}
	return m, nil
}

func (m consoleModel) View() string {
	if m.prompt == "" {
		return m.frame + "\n"
	}
	return m.frame + "\n" + m.prompt + "\n"
}

// translateKey maps arrows to moves, space to interact and s to stay. While
// a subtask prompt is open the chooser keys select subtasks instead.
func translateKey(msg tea.KeyMsg, prompting bool) (keyEvent, bool) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return keyEvent{quit: true}, true
	}
	if prompting {
		if len(key) == 1 {
			if id := strings.IndexByte(subtaskKeys, key[0]); id >= 0 {
				return keyEvent{subtask: id}, true
			}
		}
		return keyEvent{}, false
	}
	switch key {
	case "up":
		return keyEvent{act: action.North, subtask: -1}, true
	case "down":
		return keyEvent{act: action.South, subtask: -1}, true
	case "right":
		return keyEvent{act: action.East, subtask: -1}, true
	case "left":
		return keyEvent{act: action.West, subtask: -1}, true
	case " ", "space":
		return keyEvent{act: action.Interact, subtask: -1}, true
	case "s":
		return keyEvent{act: action.Stay, subtask: -1}, true
	}
	return keyEvent{}, false
}

// Console implements session.InputSource, session.Display and
// agent.SubtaskProvider on one terminal.
type Console struct {
	kb      *keyboard
	program *tea.Program

	mu      sync.Mutex
	started bool
	closed  bool
	done    chan struct{}
	runErr  error
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	kb := &keyboard{events: make(chan keyEvent, 64), quit: make(chan struct{})}
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return &Console{
		kb:      kb,
		program: tea.NewProgram(consoleModel{kb: kb}, opts...),
		done:    make(chan struct{}),
	}
}

// Start runs the terminal program in the background. Show starts it on
// first use.
func (c *Console) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	go func() {
		_, err := c.program.Run()
		c.mu.Lock()
		c.runErr = err
		c.mu.Unlock()
		c.kb.signalQuit()
		close(c.done)
	}()
}

// Next blocks until a movement key is pressed for seat. The quit keys end
// the wait with session.ErrQuit.
func (c *Console) Next(ctx context.Context, seat int) (action.Action, error) {
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-c.kb.quit:
			return 0, session.ErrQuit
		case ev := <-c.kb.events:
			if ev.subtask >= 0 {
				continue
			}
			return ev.act, nil
		}
	}
}

// Quit is closed once a quit key is pressed or the terminal program exits.
func (c *Console) Quit() <-chan struct{} {
	return c.kb.quit
}

func (c *Console) Show(frame visual.Frame) error {
	if c.isClosed() {
		return ErrClosed
	}
	c.Start()
	c.program.Send(frameMsg(frame.Styled))
	return nil
}

// NextSubtask asks the player for the next subtask among legal.
func (c *Console) NextSubtask(current int, legal []int) (int, error) {
	if c.isClosed() {
		return 0, ErrClosed
	}
	c.Start()
	names := make([]string, 0, len(legal))
	for _, id := range legal {
		names = append(names, fmt.Sprintf("[%c] %s", subtaskKeys[id], model.SubtaskName(id)))
	}
	c.program.Send(promptMsg(fmt.Sprintf("current: %s. next subtask: %s", model.SubtaskName(current), strings.Join(names, "  "))))
	defer c.program.Send(promptMsg(""))

	for {
		select {
		case <-c.kb.quit:
			return 0, session.ErrQuit
		case ev := <-c.kb.events:
			if ev.subtask < 0 {
				continue
			}
			for _, id := range legal {
				if id == ev.subtask {
					return id, nil
				}
			}
		}
	}
}

func (c *Console) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	if !started {
		return nil
	}
	c.program.Quit()
	<-c.done
	c.mu.Lock()
	defer c.mu.Unlock()
	if errors.Is(c.runErr, tea.ErrProgramKilled) {
		return nil
	}
	return c.runErr
}

func (c *Console) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
