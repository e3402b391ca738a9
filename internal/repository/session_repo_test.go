package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/illumiterm/backend/internal/db"
	"github.com/illumiterm/backend/internal/model"
)

func newTestRepo(t *testing.T) (*SessionRepository, *sql.DB) {
	t.Helper()
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })
	return NewSessionRepository(testDB), testDB
}

func sampleSession(id string) *model.Session {
	now := time.Now()
	return &model.Session{
		ID:          id,
		Command:     "echo hi",
		Argv:        []string{"/bin/sh", "echo hi"},
		Workdir:     "/home/user",
		Status:      model.SessionStatusRunning,
		LogFilePath: "/tmp/" + id + ".cast",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	sess := sampleSession("sess-1")
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.Command != sess.Command {
		t.Errorf("Command = %q, want %q", got.Command, sess.Command)
	}
	if len(got.Argv) != 2 || got.Argv[0] != "/bin/sh" || got.Argv[1] != "echo hi" {
		t.Errorf("Argv = %v, want %v", got.Argv, sess.Argv)
	}
	if got.Workdir != sess.Workdir {
		t.Errorf("Workdir = %q, want %q", got.Workdir, sess.Workdir)
	}
	if got.Status != model.SessionStatusRunning {
		t.Errorf("Status = %v, want running", got.Status)
	}
	if got.ExitCode != nil {
		t.Errorf("ExitCode = %v, want nil", got.ExitCode)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestUpdateStatusSetsExitCode(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	sess := sampleSession("sess-2")
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	code := 5
	if err := repo.UpdateStatus(ctx, "sess-2", model.SessionStatusClosed, &code); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err := repo.GetByID(ctx, "sess-2")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.SessionStatusClosed {
		t.Errorf("Status = %v, want closed", got.Status)
	}
	if got.ExitCode == nil || *got.ExitCode != 5 {
		t.Errorf("ExitCode = %v, want 5", got.ExitCode)
	}
}

func TestUpdateStatusMissingSession(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.UpdateStatus(context.Background(), "missing", model.SessionStatusClosed, nil)
	if !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestUpdatePIDAndTitle(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	sess := sampleSession("sess-3")
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.UpdatePID(ctx, "sess-3", 4321); err != nil {
		t.Fatalf("UpdatePID: %v", err)
	}
	if err := repo.UpdateTitle(ctx, "sess-3", "vim ~/notes"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}

	got, err := repo.GetByID(ctx, "sess-3")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PID == nil || *got.PID != 4321 {
		t.Errorf("PID = %v, want 4321", got.PID)
	}
	if got.Title != "vim ~/notes" {
		t.Errorf("Title = %q, want %q", got.Title, "vim ~/notes")
	}
}

func TestDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	sess := sampleSession("sess-4")
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(ctx, "sess-4"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "sess-4"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("second Delete err = %v, want ErrSessionNotFound", err)
	}

	exists, err := repo.Exists(ctx, "sess-4")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("session still exists after delete")
	}
}

func TestListNewestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	old := sampleSession("old")
	old.CreatedAt = time.Now().Add(-time.Hour)
	recent := sampleSession("recent")

	if err := repo.Create(ctx, old); err != nil {
		t.Fatalf("Create old: %v", err)
	}
	if err := repo.Create(ctx, recent); err != nil {
		t.Fatalf("Create recent: %v", err)
	}

	sessions, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("List returned %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "recent" || sessions[1].ID != "old" {
		t.Errorf("List order = [%s %s], want [recent old]", sessions[0].ID, sessions[1].ID)
	}
}
