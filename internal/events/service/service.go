package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-gallery/internal/apperr"
	"ms-gallery/internal/auth"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/richtext"
	"ms-gallery/internal/ticketing"
	"ms-gallery/internal/utils"
)

type EventStore interface {
	Insert(ctx context.Context, event *models.Event) (string, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	ListByStatus(ctx context.Context, status string) ([]models.Event, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type TicketingClient interface {
	Configured() bool
	CreateListing(ctx context.Context, req ticketing.ListingRequest) (*ticketing.Listing, error)
	PublishListing(ctx context.Context, externalID string) (map[string]any, error)
}

// Observer is told about every successful mutation. Its errors are logged,
// never returned to the caller.
type Observer interface {
	EventChanged(ctx context.Context, change models.EventChange) error
}

// ListingCache caches the public listing of published events. Set must drop
// the write when the cache was invalidated after generation was taken.
type ListingCache interface {
	Get(ctx context.Context) ([]models.Event, bool, error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, generation int64, events []models.Event) error
}

type EventService struct {
	Store     EventStore
	Ticketing TicketingClient
	Observers []Observer
	Cache     ListingCache
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewEventService(store EventStore, tickets TicketingClient, log *logger.Logger, observers ...Observer) *EventService {
	return &EventService{
		Store:     store,
		Ticketing: tickets,
		Observers: observers,
		Logger:    log,
		Now:       time.Now,
	}
}

type PublishResult struct {
	Event            *models.Event
	AlreadyPublished bool
	Remote           map[string]any
}

// CreateEvent validates input, mirrors the event to the ticketing service when
// it is configured, and stores a draft. A failed remote mirror aborts the
// whole operation with nothing written locally.
func (s *EventService) CreateEvent(ctx context.Context, input models.CreateEventInput) (*models.Event, error) {
	principal, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	event, err := validate(input)
	if err != nil {
		return nil, err
	}

	if s.Ticketing != nil && s.Ticketing.Configured() {
		listing, err := s.Ticketing.CreateListing(ctx, ticketing.ListingRequest{
			Title:       event.Title,
			Description: event.Description,
			Date:        event.Date,
			StartTime:   event.StartTime,
			EndTime:     event.EndTime,
			EventType:   event.EventType,
		})
		var cfgErr *apperr.ConfigurationError
		switch {
		case errors.As(err, &cfgErr):
			s.Logger.Warn("EVENT", fmt.Sprintf("Ticketing not configured (%v), creating local-only event", err))
		case err != nil:
			s.Logger.Error("EVENT", fmt.Sprintf("Remote listing for %q failed, nothing stored: %v", event.Title, err))
			return nil, err
		default:
			event.ExternalTicketID = &listing.ID
			if listing.URL != "" {
				event.ExternalTicketURL = &listing.URL
			}
		}
	}

	id, err := s.Store.Insert(ctx, event)
	if err != nil {
		if event.HasRemoteListing() {
			s.Logger.Error("EVENT", fmt.Sprintf("Orphan remote listing %s: local insert of %q failed: %v",
				*event.ExternalTicketID, event.Title, err))
		}
		return nil, err
	}

	s.Logger.LogEvent("CREATE", id, fmt.Sprintf("%q created by %s", event.Title, principal.Label()))
	s.notify(ctx, principal, event, models.ActionCreated)
	return event, nil
}

// PublishEvent publishes the remote listing and only then flips the local
// status. A record that is already published is returned without another
// remote call.
func (s *EventService) PublishEvent(ctx context.Context, id string) (*PublishResult, error) {
	principal, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	event, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.IsPublished() {
		s.Logger.LogEvent("PUBLISH", id, "already published, skipping remote call")
		return &PublishResult{Event: event, AlreadyPublished: true}, nil
	}

	if !event.HasRemoteListing() {
		return nil, apperr.ErrNoRemoteListing
	}
	if s.Ticketing == nil {
		return nil, &apperr.ConfigurationError{Missing: []string{"EVENTBRITE_API_KEY"}}
	}

	remote, err := s.Ticketing.PublishListing(ctx, *event.ExternalTicketID)
	if err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Publish of %s failed, status left as %s: %v", id, event.Status, err))
		return nil, err
	}

	if err := s.Store.UpdateStatus(ctx, id, models.StatusPublished); err != nil {
		s.Logger.Error("EVENT", fmt.Sprintf("Remote listing %s published but local status update of %s failed: %v",
			*event.ExternalTicketID, id, err))
		return nil, err
	}
	event.Status = models.StatusPublished

	s.Logger.LogEvent("PUBLISH", id, fmt.Sprintf("published by %s", principal.Label()))
	s.notify(ctx, principal, event, models.ActionPublished)
	return &PublishResult{Event: event, Remote: remote}, nil
}

// DeleteEvent removes the local record only. The remote listing, if any, is
// left as it is.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	principal, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return err
	}

	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}

	s.Logger.LogEvent("DELETE", id, fmt.Sprintf("deleted by %s", principal.Label()))
	s.notify(ctx, principal, &models.Event{ID: id}, models.ActionDeleted)
	return nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.Store.Get(ctx, id)
}

// ListEvents returns every event with a plain-text excerpt, for the admin view.
func (s *EventService) ListEvents(ctx context.Context) ([]models.EventSummary, error) {
	events, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.EventSummary, 0, len(events))
	for _, e := range events {
		summaries = append(summaries, models.EventSummary{
			Event:   e,
			Excerpt: richtext.Excerpt(e.Description, richtext.DefaultExcerptLength),
		})
	}
	return summaries, nil
}

// ListPublishedEvents serves the public listing, from cache when possible.
// Cache failures fall through to the store.
func (s *EventService) ListPublishedEvents(ctx context.Context) ([]models.Event, error) {
	cacheable := false
	var generation int64

	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx)
		if err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("Listing cache read failed: %v", err))
		} else if ok {
			return cached, nil
		}

		// taken before the store read so a mutation during the read wins
		generation, err = s.Cache.Generation(ctx)
		if err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("Listing cache generation read failed: %v", err))
		} else {
			cacheable = true
		}
	}

	events, err := s.Store.ListByStatus(ctx, models.StatusPublished)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.Cache.Set(ctx, generation, events); err != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("Listing cache write failed: %v", err))
		}
	}
	return events, nil
}

func (s *EventService) notify(ctx context.Context, principal *models.Principal, event *models.Event, action string) {
	change := models.EventChange{
		EventID:    event.ID,
		Action:     action,
		Status:     event.Status,
		Title:      event.Title,
		Actor:      principal.Label(),
		OccurredAt: s.now().UTC(),
	}
	for _, o := range s.Observers {
		if err := o.EventChanged(ctx, change); err != nil {
			s.Logger.Warn("EVENT", fmt.Sprintf("Observer failed for %s of %s: %v", action, event.ID, err))
		}
	}
}

func (s *EventService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// validate checks required fields in a fixed order, then formats, and returns
// a draft ready to store.
func validate(input models.CreateEventInput) (*models.Event, error) {
	required := []struct {
		field string
		value string
	}{
		{"title", input.Title},
		{"date", input.Date},
		{"start_time", input.StartTime},
		{"end_time", input.EndTime},
		{"description", input.Description},
		{"event_type", input.EventType},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, &apperr.ValidationError{Field: r.field}
		}
	}

	date := strings.TrimSpace(input.Date)
	start := strings.TrimSpace(input.StartTime)
	end := strings.TrimSpace(input.EndTime)

	if !utils.ValidDate(date) {
		return nil, &apperr.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	if !utils.ValidClock(start) {
		return nil, &apperr.ValidationError{Field: "start_time", Reason: "expected HH:MM"}
	}
	if !utils.ValidClock(end) {
		return nil, &apperr.ValidationError{Field: "end_time", Reason: "expected HH:MM"}
	}

	description := richtext.Sanitize(input.Description)
	if description == "" {
		return nil, &apperr.ValidationError{Field: "description", Reason: "no content left after sanitizing"}
	}

	return &models.Event{
		Title:       strings.TrimSpace(input.Title),
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Description: description,
		EventType:   strings.TrimSpace(input.EventType),
		ButtonText:  models.DefaultButtonText,
		Status:      models.StatusDraft,
	}, nil
}
