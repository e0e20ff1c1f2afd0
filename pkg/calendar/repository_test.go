//go:build integration

package calendar

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/weekcal/internal/test_utils"
	"github.com/klokku/weekcal/pkg/user"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, int) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(ctx))
	})
	userId, err := user.NewUserRepo(db).CreateUser(ctx, user.User{Uid: uuid.NewString(), Username: "anna", DisplayName: "Anna"})
	require.NoError(t, err)
	return ctx, NewRepository(db), userId
}

func TestRepositoryImpl_StoreAndGet(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	event := Event{
		Title: "Standup", Description: "daily sync", Location: "Room 1", Color: "#3b82f6",
		Date: day(2025, 1, 7), StartTime: "09:00", EndTime: "09:15", Recurrence: "FREQ=WEEKLY;BYDAY=TU",
	}

	uid, err := repo.StoreEvent(ctx, userId, event)
	require.NoError(t, err)

	stored, err := repo.GetEvent(ctx, userId, uid)
	require.NoError(t, err)
	event.UID = uuid.NullUUID{UUID: uid, Valid: true}
	assert.Equal(t, event, stored)

	_, err = repo.GetEvent(ctx, userId+1, uid)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRepositoryImpl_GetEvents(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	for _, e := range []Event{
		{Title: "before", Date: day(2025, 1, 5)},
		{Title: "inside", Date: day(2025, 1, 8), StartTime: "10:00"},
		{Title: "after", Date: day(2025, 1, 13)},
		{Title: "old series", Date: day(2024, 6, 3), Recurrence: "FREQ=WEEKLY"},
		{Title: "future series", Date: day(2025, 2, 3), Recurrence: "FREQ=WEEKLY"},
	} {
		_, err := repo.StoreEvent(ctx, userId, e)
		require.NoError(t, err)
	}

	events, err := repo.GetEvents(ctx, userId, day(2025, 1, 6), day(2025, 1, 12))

	require.NoError(t, err)
	titles := make([]string, 0, len(events))
	for _, e := range events {
		titles = append(titles, e.Title)
	}
	assert.Equal(t, []string{"old series", "inside"}, titles)
}

func TestRepositoryImpl_UpdateAndDelete(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	uid, err := repo.StoreEvent(ctx, userId, Event{Title: "Review", Date: day(2025, 1, 7)})
	require.NoError(t, err)

	updated := Event{UID: uuid.NullUUID{UUID: uid, Valid: true}, Title: "Design review", Date: day(2025, 1, 9), AllDay: true}
	require.NoError(t, repo.UpdateEvent(ctx, userId, updated))
	stored, err := repo.GetEvent(ctx, userId, uid)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)

	require.NoError(t, repo.DeleteEvent(ctx, userId, uid))
	assert.ErrorIs(t, repo.DeleteEvent(ctx, userId, uid), ErrEventNotFound)
	assert.ErrorIs(t, repo.UpdateEvent(ctx, userId, updated), ErrEventNotFound)
}

func TestRepositoryImpl_WithTransactionRollsBack(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	failure := errors.New("abort")

	err := repo.WithTransaction(ctx, func(tx Repository) error {
		if _, err := tx.StoreEvent(ctx, userId, Event{Title: "Discarded", Date: day(2025, 1, 7)}); err != nil {
			return err
		}
		return failure
	})

	assert.ErrorIs(t, err, failure)
	events, err := repo.GetEvents(ctx, userId, day(2025, 1, 6), day(2025, 1, 12))
	require.NoError(t, err)
	assert.Empty(t, events)
}
