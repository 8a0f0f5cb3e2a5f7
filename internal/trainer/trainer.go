// Package trainer owns an ordered set of agents, saves and restores them as a
// unit and evaluates them in an environment.
package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"oaiagents/internal/agent"
	"oaiagents/internal/checkpoint"
	"oaiagents/internal/model"
)

var (
	ErrAgentOwned = errors.New("agent is owned by another trainer")
	ErrNoAgents   = errors.New("trainer has no agents")
	ErrIndex      = errors.New("agent index out of range")
)

// owners maps every owned agent to its trainer. An agent belongs to at most
// one trainer at a time.
var owners = struct {
	mu sync.Mutex
	m  map[agent.Agent]*Trainer
}{
	m: make(map[agent.Agent]*Trainer),
}

type Config struct {
	Name    string
	Agents  []agent.Agent
	Rand    *rand.Rand
	Runtime model.RuntimeArgs
	Logger  *slog.Logger
}

type Trainer struct {
	mu      sync.RWMutex
	name    string
	agents  []agent.Agent
	history []model.CheckpointRef
	rng     *rand.Rand
	runtime model.RuntimeArgs
	logger  *slog.Logger
}

// New claims cfg.Agents in order. It fails without claiming anything if one
// of them is already owned.
func New(cfg Config) (*Trainer, error) {
	if cfg.Name == "" {
		return nil, errors.New("trainer name is required")
	}
	if cfg.Rand == nil {
		return nil, errors.New("trainer random source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Trainer{
		name:    cfg.Name,
		rng:     cfg.Rand,
		runtime: cfg.Runtime,
		logger:  logger.With(slog.String("trainer", cfg.Name)),
	}
	if err := claim(t, cfg.Agents...); err != nil {
		return nil, err
	}
	t.agents = append([]agent.Agent(nil), cfg.Agents...)
	return t, nil
}

func claim(t *Trainer, agents ...agent.Agent) error {
	owners.mu.Lock()
	defer owners.mu.Unlock()

	for _, a := range agents {
		if a == nil {
			return errors.New("agent is required")
		}
		if owner, ok := owners.m[a]; ok && owner != t {
			return fmt.Errorf("%w: %s owned by %s", ErrAgentOwned, a.Name(), owner.name)
		}
	}
	for _, a := range agents {
		owners.m[a] = t
	}
	return nil
}

func release(t *Trainer, agents ...agent.Agent) {
	owners.mu.Lock()
	defer owners.mu.Unlock()

	for _, a := range agents {
		if owners.m[a] == t {
			delete(owners.m, a)
		}
	}
}

func (t *Trainer) Name() string { return t.name }

// Agents returns the owned agents in order.
func (t *Trainer) Agents() []agent.Agent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]agent.Agent(nil), t.agents...)
}

func (t *Trainer) Agent(i int) (agent.Agent, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.agents) {
		return nil, fmt.Errorf("%w: %d", ErrIndex, i)
	}
	return t.agents[i], nil
}

func (t *Trainer) Add(a agent.Agent) error {
	if err := claim(t, a); err != nil {
		return err
	}
	t.mu.Lock()
	t.agents = append(t.agents, a)
	t.mu.Unlock()
	return nil
}

// Replace swaps the agent at index i and releases the old one.
func (t *Trainer) Replace(i int, a agent.Agent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.agents) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	if err := claim(t, a); err != nil {
		return err
	}
	old := t.agents[i]
	t.agents[i] = a
	if old != a {
		release(t, old)
	}
	return nil
}

// Close gives up ownership of every agent.
func (t *Trainer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	release(t, t.agents...)
	t.agents = nil
}

// Checkpoints is the history of SaveAgents calls, oldest first.
func (t *Trainer) Checkpoints() []model.CheckpointRef {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.CheckpointRef(nil), t.history...)
}

// SaveAgents writes every agent under root/tag and records the checkpoint.
func (t *Trainer) SaveAgents(root, tag string) (model.CheckpointRef, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.agents) == 0 {
		return model.CheckpointRef{}, ErrNoAgents
	}

	dir, err := checkpoint.SaveAgents(snapshot{name: t.name, agents: t.agents}, root, tag, t.runtime)
	if err != nil {
		return model.CheckpointRef{}, err
	}
	ref := model.CheckpointRef{
		ID:      uuid.NewString(),
		Path:    dir,
		Tag:     tag,
		SavedAt: time.Now().UTC(),
	}
	t.history = append(t.history, ref)
	t.logger.Info("agents saved", slog.String("path", dir), slog.Int("agents", len(t.agents)))
	return ref, nil
}

// Load restores a trainer saved with SaveAgents. The loaded agents share rng.
func Load(root, tag string, runtime model.RuntimeArgs, rng *rand.Rand, logger *slog.Logger, opts ...checkpoint.LoadOption) (*Trainer, error) {
	if rng == nil {
		return nil, errors.New("trainer random source is required")
	}
	opts = append([]checkpoint.LoadOption{checkpoint.WithRand(rng)}, opts...)
	manifest, agents, err := checkpoint.LoadAgents(root, tag, runtime, opts...)
	if err != nil {
		return nil, err
	}
	name := manifest.Name
	if name == "" {
		name = tag
	}
	return New(Config{Name: name, Agents: agents, Rand: rng, Runtime: runtime, Logger: logger})
}

// PickTeammate draws one of the owned agents uniformly.
func (t *Trainer) PickTeammate() (agent.Agent, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.agents) == 0 {
		return nil, ErrNoAgents
	}
	return t.agents[t.rng.Intn(len(t.agents))], nil
}

type snapshot struct {
	name   string
	agents []agent.Agent
}

func (s snapshot) Name() string          { return s.name }
func (s snapshot) Agents() []agent.Agent { return s.agents }
