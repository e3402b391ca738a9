package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/illumiterm/backend/internal/db"
	"github.com/illumiterm/backend/internal/model"
)

// generateID generates a unique ID for testing.
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// For any command string and working directory, a created session can be
// read back with its argv, command, workdir and status intact. The argv
// round trip matters most: the shell receives exactly what was stored, one
// element per argument, with no re-splitting.
func TestSessionPersistenceRoundTripProperty(t *testing.T) {
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	defer testDB.Close()

	repo := NewSessionRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	nonEmptyString := gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0 && len(s) <= 100
	})

	properties.Property("created sessions round-trip through the database", prop.ForAll(
		func(command, workdir string) bool {
			sessionID := generateID()

			session := &model.Session{
				ID:          sessionID,
				Command:     command,
				Argv:        []string{"/bin/sh", command},
				Workdir:     workdir,
				Status:      model.SessionStatusRunning,
				LogFilePath: "/tmp/" + sessionID + ".cast",
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}

			if err := repo.Create(ctx, session); err != nil {
				t.Logf("failed to create session: %v", err)
				return false
			}

			retrieved, err := repo.GetByID(ctx, sessionID)
			if err != nil {
				t.Logf("failed to retrieve session: %v", err)
				return false
			}

			ok := retrieved.ID == session.ID &&
				retrieved.Command == session.Command &&
				reflect.DeepEqual(retrieved.Argv, session.Argv) &&
				retrieved.Workdir == session.Workdir &&
				retrieved.Status == session.Status &&
				retrieved.LogFilePath == session.LogFilePath
			if !ok {
				t.Logf("retrieved session does not match created session")
				return false
			}

			repo.Delete(ctx, sessionID)
			return true
		},
		nonEmptyString,
		nonEmptyString,
	))

	properties.Property("status updates preserve the first recorded exit code", prop.ForAll(
		func(code int) bool {
			sessionID := generateID()

			session := &model.Session{
				ID:        sessionID,
				Argv:      []string{"/bin/sh"},
				Status:    model.SessionStatusRunning,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			if err := repo.Create(ctx, session); err != nil {
				t.Logf("failed to create session: %v", err)
				return false
			}

			if err := repo.UpdateStatus(ctx, sessionID, model.SessionStatusClosed, &code); err != nil {
				t.Logf("failed to update status: %v", err)
				return false
			}

			retrieved, err := repo.GetByID(ctx, sessionID)
			if err != nil {
				t.Logf("failed to retrieve session: %v", err)
				return false
			}

			ok := retrieved.Status == model.SessionStatusClosed &&
				retrieved.ExitCode != nil &&
				*retrieved.ExitCode == code
			if !ok {
				t.Logf("exit code %d not preserved: got %v", code, retrieved.ExitCode)
				return false
			}

			repo.Delete(ctx, sessionID)
			return true
		},
		gen.IntRange(0, 255),
	))

	properties.TestingRun(t)
}
