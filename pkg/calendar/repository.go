package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	StoreEvent(ctx context.Context, userId int, event Event) (uuid.UUID, error)
	GetEvent(ctx context.Context, userId int, uid uuid.UUID) (Event, error)
	// GetEvents returns single events dated from..to and every recurring event
	// that starts on or before to.
	GetEvents(ctx context.Context, userId int, from, to time.Time) ([]Event, error)
	UpdateEvent(ctx context.Context, userId int, event Event) error
	DeleteEvent(ctx context.Context, userId int, uid uuid.UUID) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *RepositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const eventColumns = `uid, title, description, location, color, event_date, start_time, end_time, all_day, recurrence`

func scanEvent(row pgx.Row) (Event, error) {
	var e Event
	var uid uuid.UUID
	err := row.Scan(&uid, &e.Title, &e.Description, &e.Location, &e.Color, &e.Date, &e.StartTime, &e.EndTime, &e.AllDay, &e.Recurrence)
	if err != nil {
		return Event{}, err
	}
	e.UID = uuid.NullUUID{UUID: uid, Valid: true}
	e.Date = civilDate(e.Date)
	return e, nil
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, userId int, event Event) (uuid.UUID, error) {
	query := `INSERT INTO calendar_event (uid, user_id, title, description, location, color, event_date, start_time, end_time, all_day, recurrence)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	uid := uuid.New()
	_, err := r.getQueryer().Exec(ctx, query, uid, userId, event.Title, event.Description, event.Location, event.Color,
		civilDate(event.Date), event.StartTime, event.EndTime, event.AllDay, event.Recurrence)
	if err != nil {
		err := fmt.Errorf("could not store calendar event: %w", err)
		log.Error(err)
		return uuid.Nil, err
	}
	return uid, nil
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, userId int, uid uuid.UUID) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event WHERE uid = $1 AND user_id = $2`
	e, err := scanEvent(r.getQueryer().QueryRow(ctx, query, uid, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	} else if err != nil {
		err := fmt.Errorf("could not get calendar event: %w", err)
		log.Error(err)
		return Event{}, err
	}
	return e, nil
}

func (r *RepositoryImpl) GetEvents(ctx context.Context, userId int, from, to time.Time) ([]Event, error) {
	query := `SELECT ` + eventColumns + `
			  FROM calendar_event
			  WHERE user_id = $1
			    AND ((recurrence = '' AND event_date BETWEEN $2 AND $3)
			      OR (recurrence <> '' AND event_date <= $3))
			  ORDER BY event_date, start_time`

	rows, err := r.getQueryer().Query(ctx, query, userId, civilDate(from), civilDate(to))
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 16)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over calendar events: %v", err)
		return nil, err
	}
	return events, nil
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, userId int, event Event) error {
	query := `UPDATE calendar_event
			  SET title = $1, description = $2, location = $3, color = $4, event_date = $5,
			      start_time = $6, end_time = $7, all_day = $8, recurrence = $9
			  WHERE uid = $10 AND user_id = $11`
	tag, err := r.getQueryer().Exec(ctx, query, event.Title, event.Description, event.Location, event.Color,
		civilDate(event.Date), event.StartTime, event.EndTime, event.AllDay, event.Recurrence, event.UID.UUID, userId)
	if err != nil {
		err := fmt.Errorf("could not update calendar event: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, userId int, uid uuid.UUID) error {
	tag, err := r.getQueryer().Exec(ctx, `DELETE FROM calendar_event WHERE uid = $1 AND user_id = $2`, uid, userId)
	if err != nil {
		err := fmt.Errorf("could not delete calendar event: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}
