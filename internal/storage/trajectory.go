package storage

import (
	"context"
	"fmt"
	"sort"

	"oaiagents/internal/model"
)

// Trajectory is an ordered run of transitions, possibly spanning trials.
type Trajectory []model.Transition

// Clone copies the transitions and their state snapshots.
func (t Trajectory) Clone() Trajectory {
	if t == nil {
		return nil
	}
	out := make(Trajectory, len(t))
	for i, tr := range t {
		tr.State = tr.State.Clone()
		tr.Layout = tr.Layout.Clone()
		out[i] = tr
	}
	return out
}

// TrialIDs returns the distinct trial ids in order of first appearance.
func (t Trajectory) TrialIDs() []int {
	var ids []int
	seen := map[int]bool{}
	for _, tr := range t {
		if !seen[tr.TrialID] {
			seen[tr.TrialID] = true
			ids = append(ids, tr.TrialID)
		}
	}
	return ids
}

// Filter keeps the transitions recorded on layout.
func (t Trajectory) Filter(layout string) Trajectory {
	out := make(Trajectory, 0, len(t))
	for _, tr := range t {
		if tr.LayoutName == layout {
			out = append(out, tr)
		}
	}
	return out
}

// Log is the append-only transition buffer of a running session.
type Log struct {
	records Trajectory
}

func (l *Log) Append(tr model.Transition) {
	tr.State = tr.State.Clone()
	tr.Layout = tr.Layout.Clone()
	l.records = append(l.records, tr)
}

func (l *Log) Len() int { return len(l.records) }

// Trajectory returns a copy of everything appended so far.
func (l *Log) Trajectory() Trajectory {
	return l.records.Clone()
}

// NextTrialID is one more than the highest trial id persisted for layout, or
// 1 when there is none.
func NextTrialID(ctx context.Context, store Store, layout string) (int, error) {
	ids, err := store.TrialIDs(ctx, layout)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, id := range ids {
		if id >= next {
			next = id + 1
		}
	}
	return next, nil
}

// Combine concatenates every persisted trial of layout in trial id order and
// stores the result as the layout's combined log.
func Combine(ctx context.Context, store Store, layout string) (Trajectory, error) {
	ids, err := store.TrialIDs(ctx, layout)
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	var all Trajectory
	for _, id := range ids {
		trial, ok, err := store.LoadTrial(ctx, layout, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("trial %s.%d listed but missing", layout, id)
		}
		all = append(all, trial...)
	}
	if err := store.SaveCombined(ctx, layout, all); err != nil {
		return nil, err
	}
	return all, nil
}

// Rewrite loads and re-saves every trial of layout, normalizing legacy
// encodings such as list-of-lists layouts. It returns the trials rewritten.
func Rewrite(ctx context.Context, store Store, layout string) (int, error) {
	ids, err := store.TrialIDs(ctx, layout)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		trial, ok, err := store.LoadTrial(ctx, layout, id)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		for i := range trial {
			if trial[i].LayoutName == "" {
				trial[i].LayoutName = layout
			}
		}
		if err := store.SaveTrial(ctx, layout, id, trial); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
