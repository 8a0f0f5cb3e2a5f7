package storage

import (
	"context"

	"oaiagents/internal/model"
)

// Store persists trial trajectories keyed by layout name and trial id, plus
// one combined log per layout.
type Store interface {
	Init(ctx context.Context) error
	SaveTrial(ctx context.Context, layout string, trialID int, records Trajectory) error
	LoadTrial(ctx context.Context, layout string, trialID int) (Trajectory, bool, error)
	// TrialIDs lists the persisted trial ids of layout in ascending order.
	TrialIDs(ctx context.Context, layout string) ([]int, error)
	SaveCombined(ctx context.Context, layout string, records Trajectory) error
	LoadCombined(ctx context.Context, layout string) (Trajectory, bool, error)
}

// TrialRecord is the stored form of one trial.
type TrialRecord struct {
	model.VersionedRecord
	Layout      string             `json:"layout"`
	TrialID     int                `json:"trial_id"`
	Transitions []model.Transition `json:"transitions"`
}
