package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *Queries {
	t.Helper()
	db, err := OpenState(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenState() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewQueries(db)
}

func TestStateRoundTripIsScopedPerContext(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()

	if _, err := q.GetState(ctx, "prod", "refreshToken"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := q.PutState(ctx, "prod", "refreshToken", "r1"); err != nil {
		t.Fatalf("PutState() error = %v", err)
	}
	if err := q.PutState(ctx, "staging", "refreshToken", "s1"); err != nil {
		t.Fatalf("PutState() error = %v", err)
	}
	if err := q.PutState(ctx, "prod", "refreshToken", "r2"); err != nil {
		t.Fatalf("PutState() overwrite error = %v", err)
	}

	got, err := q.GetState(ctx, "prod", "refreshToken")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if got.Value != "r2" {
		t.Fatalf("expected overwritten value, got %q", got.Value)
	}
	other, err := q.GetState(ctx, "staging", "refreshToken")
	if err != nil || other.Value != "s1" {
		t.Fatalf("expected staging value to be untouched, got %#v %v", other, err)
	}

	if err := q.DeleteState(ctx, "prod", "refreshToken"); err != nil {
		t.Fatalf("DeleteState() error = %v", err)
	}
	if _, err := q.GetState(ctx, "prod", "refreshToken"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestActivityInsertAndFilter(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()

	rows := []ActivityRow{
		{Context: "prod", Actor: "ops", Operation: "createSite", Tags: "Site:LIST", Outcome: "success", RequestID: "A"},
		{Context: "prod", Actor: "ops", Operation: "deleteSite", Tags: "Site:1", Outcome: "error", ErrorMessage: "resource not found"},
		{Context: "staging", Actor: "ops", Operation: "createSite", Outcome: "success"},
	}
	for _, r := range rows {
		if _, err := q.InsertActivity(ctx, r); err != nil {
			t.Fatalf("InsertActivity() error = %v", err)
		}
	}

	got, total, err := q.ListActivity(ctx, ListActivityParams{Context: "prod"})
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("expected 2 prod rows, got total=%d len=%d", total, len(got))
	}
	if got[0].Operation != "deleteSite" {
		t.Fatalf("expected newest first, got %q", got[0].Operation)
	}
	if got[0].MetadataJSON != "{}" {
		t.Fatalf("expected default metadata, got %q", got[0].MetadataJSON)
	}

	filtered, total, err := q.ListActivity(ctx, ListActivityParams{Operation: "createSite", Limit: 1})
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}
	if total != 2 || len(filtered) != 1 {
		t.Fatalf("expected limit to apply after count, got total=%d len=%d", total, len(filtered))
	}

	if err := q.DeleteContext(ctx, "prod"); err != nil {
		t.Fatalf("DeleteContext() error = %v", err)
	}
	if _, total, _ := q.ListActivity(ctx, ListActivityParams{Context: "prod"}); total != 0 {
		t.Fatalf("expected prod journal to be cleared, got %d", total)
	}
}
