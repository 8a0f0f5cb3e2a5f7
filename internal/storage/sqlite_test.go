//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSQLiteStoreTrialRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "trials.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	trial := sampleTrial("forced_coordination", 2, 3)
	if err := store.SaveTrial(ctx, "forced_coordination", 2, trial); err != nil {
		t.Fatalf("save trial: %v", err)
	}
	loaded, ok, err := store.LoadTrial(ctx, "forced_coordination", 2)
	if err != nil || !ok {
		t.Fatalf("load trial: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(trial, loaded) {
		t.Fatalf("trial mismatch:\nwant=%+v\ngot=%+v", trial, loaded)
	}

	next, err := NextTrialID(ctx, store, "forced_coordination")
	if err != nil {
		t.Fatalf("next trial id: %v", err)
	}
	if next != 3 {
		t.Fatalf("unexpected next trial id: got=%d want=3", next)
	}

	if _, err := Combine(ctx, store, "forced_coordination"); err != nil {
		t.Fatalf("combine: %v", err)
	}
	combined, ok, err := store.LoadCombined(ctx, "forced_coordination")
	if err != nil || !ok || len(combined) != 3 {
		t.Fatalf("load combined: len=%d ok=%v err=%v", len(combined), ok, err)
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore(BackendSQLite, filepath.Join(t.TempDir(), "trials.db"), nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("unexpected store type %T", store)
	}
}
