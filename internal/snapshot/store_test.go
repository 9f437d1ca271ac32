package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/exam-portal/portal-client/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snap := &model.AttemptSnapshot{
		TimeLeft:        1800,
		Answers:         map[int64]int{101: 2, 102: 0},
		CurrentQuestion: 1,
	}
	if err := store.Save(ctx, 1, 7, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, 1, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TimeLeft != 1800 || got.CurrentQuestion != 1 {
		t.Errorf("loaded %+v, want timeLeft 1800 index 1", got)
	}
	if len(got.Answers) != 2 || got.Answers[101] != 2 || got.Answers[102] != 0 {
		t.Errorf("answers = %v", got.Answers)
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := &model.AttemptSnapshot{TimeLeft: 100, Answers: map[int64]int{1: 0}}
	second := &model.AttemptSnapshot{TimeLeft: 90, Answers: map[int64]int{1: 2}, CurrentQuestion: 3}
	if err := store.Save(ctx, 1, 7, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, 1, 7, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx, 1, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.TimeLeft != 90 || got.Answers[1] != 2 || got.CurrentQuestion != 3 {
		t.Errorf("loaded %+v, want the second write", got)
	}
}

func TestLoadMissingReturnsErrNoSnapshot(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Load(context.Background(), 42, 7); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestSnapshotsKeyedPerExamAndUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, 1, 7, &model.AttemptSnapshot{TimeLeft: 10}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, 2, 7, &model.AttemptSnapshot{TimeLeft: 20}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, 1, 8, &model.AttemptSnapshot{TimeLeft: 30}); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		examID, userID int64
		wantTime       int
	}{
		{1, 7, 10},
		{2, 7, 20},
		{1, 8, 30},
	} {
		got, err := store.Load(ctx, tc.examID, tc.userID)
		if err != nil {
			t.Fatalf("load (%d,%d): %v", tc.examID, tc.userID, err)
		}
		if got.TimeLeft != tc.wantTime {
			t.Errorf("(%d,%d) timeLeft = %d, want %d",
				tc.examID, tc.userID, got.TimeLeft, tc.wantTime)
		}
	}
}

func TestCorruptPayloadDiscarded(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO attempt_snapshots (exam_id, user_id, payload) VALUES (1, 7, '{broken')`)
	if err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	if _, err := store.Load(ctx, 1, 7); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot for corrupt payload", err)
	}

	// The corrupt row must be gone so it cannot poison the next attempt.
	var n int
	if err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempt_snapshots`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("corrupt row still present (count %d)", n)
	}
}

func TestNilAnswersNormalizedToEmptyMap(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, 1, 7, &model.AttemptSnapshot{TimeLeft: 5}); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx, 1, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.Answers == nil {
		t.Fatal("answers map is nil")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, 1, 7, &model.AttemptSnapshot{TimeLeft: 5}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, 1, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, 1, 7); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Load(ctx, 1, 7); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot after delete", err)
	}
}
