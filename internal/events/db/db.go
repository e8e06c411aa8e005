package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-gallery/internal/apperr"
	"ms-gallery/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// Insert assigns a fresh id and creation time and returns the id.
func (d *DB) Insert(ctx context.Context, event *models.Event) (string, error) {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now().UTC()
	if event.Status == "" {
		event.Status = models.StatusDraft
	}
	if event.ButtonText == "" {
		event.ButtonText = models.DefaultButtonText
	}

	if _, err := d.Bun.NewInsert().Model(event).Exec(ctx); err != nil {
		return "", apperr.Storage("insert event", err)
	}
	return event.ID, nil
}

// ListAll returns every event ordered by date then start time.
func (d *DB) ListAll(ctx context.Context) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Order("date ASC", "start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Storage("list events", err)
	}
	return events, nil
}

func (d *DB) ListByStatus(ctx context.Context, status string) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", status).
		Order("date ASC", "start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Storage("list events by status", err)
	}
	return events, nil
}

func (d *DB) Get(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Storage("get event", err)
	}
	return &event, nil
}

func (d *DB) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperr.Storage("update event status", err)
	}
	return requireAffected(res, "update event status")
}

func (d *DB) Delete(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperr.Storage("delete event", err)
	}
	return requireAffected(res, "delete event")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(op, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
