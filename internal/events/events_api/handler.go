package events_api

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"ms-gallery/internal/apperr"
	"ms-gallery/internal/auth"
	events "ms-gallery/internal/events/service"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/qr"
	"ms-gallery/internal/sse"
	"ms-gallery/internal/utils"

	"github.com/go-chi/chi/v5"
)

const maxFormMemory = 1 << 20

// Workflow is the event operations the handlers drive.
type Workflow interface {
	CreateEvent(ctx context.Context, input models.CreateEventInput) (*models.Event, error)
	PublishEvent(ctx context.Context, id string) (*events.PublishResult, error)
	DeleteEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.EventSummary, error)
	ListPublishedEvents(ctx context.Context) ([]models.Event, error)
}

type Handler struct {
	Events  Workflow
	QR      *qr.Generator
	Emitter *sse.ChangeEmitter
	Logger  *logger.Logger
}

func NewHandler(workflow Workflow, qrGen *qr.Generator, emitter *sse.ChangeEmitter, log *logger.Logger) *Handler {
	return &Handler{
		Events:  workflow,
		QR:      qrGen,
		Emitter: emitter,
		Logger:  log,
	}
}

func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/api/events", h.ListPublished)
	r.Get("/api/events/{eventId}/qr", h.TicketQR)
}

// AdminRoutes expects to be mounted behind auth.Middleware.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Get("/events", h.ListAll)
	r.Post("/events", h.Create)
	r.Get("/events/stream", h.Stream)
	r.Get("/events/{eventId}", h.Get)
	r.Post("/events/{eventId}/publish", h.Publish)
	r.Delete("/events/{eventId}", h.Delete)
}

func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	list, err := h.Events.ListPublishedEvents(r.Context())
	if err != nil {
		writeError(w, h.Logger, "Failed to list events", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", list))
}

func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	event, err := h.Events.GetEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, h.Logger, "Failed to load event", err)
		return
	}
	// drafts are not public
	if !event.IsPublished() || event.ExternalTicketURL == nil || *event.ExternalTicketURL == "" {
		writeError(w, h.Logger, "No ticket page for event", apperr.ErrNotFound)
		return
	}

	png, err := h.QR.PNG(*event.ExternalTicketURL)
	if err != nil {
		writeError(w, h.Logger, "Failed to render QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		writeError(w, h.Logger, "Unauthorized", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Authenticated", principal))
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.Events.ListEvents(r.Context())
	if err != nil {
		writeError(w, h.Logger, "Failed to list events", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", list))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Events.GetEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, h.Logger, "Failed to load event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event retrieved", event))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := decodeCreateInput(w, r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	event, err := h.Events.CreateEvent(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, "Failed to create event", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Event created successfully", event))
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	result, err := h.Events.PublishEvent(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, h.Logger, "Failed to publish event", err)
		return
	}

	message := "Event published successfully"
	if result.AlreadyPublished {
		message = "Event already published"
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(message, result.Event))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventId")
	if err := h.Events.DeleteEvent(r.Context(), id); err != nil {
		writeError(w, h.Logger, "Failed to delete event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event deleted", map[string]string{"id": id}))
}

// Stream pushes event changes to the admin dashboard as Server-Sent Events.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Streaming unsupported", "response writer cannot flush"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// the stream outlives the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ctx := r.Context()
	changes := h.Emitter.Subscribe(ctx)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()
	h.Logger.Info("SSE", "Admin client connected to event changes")

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize event change: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Action, data)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Admin client disconnected")
			return
		}
	}
}

// decodeCreateInput accepts JSON and form-encoded (including multipart) bodies.
func decodeCreateInput(w http.ResponseWriter, r *http.Request) (models.CreateEventInput, error) {
	var input models.CreateEventInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/x-www-form-urlencoded", strings.HasPrefix(mediaType, "multipart/"):
		if strings.HasPrefix(mediaType, "multipart/") {
			if err := r.ParseMultipartForm(maxFormMemory); err != nil {
				return input, err
			}
		} else if err := r.ParseForm(); err != nil {
			return input, err
		}
		input = models.CreateEventInput{
			Title:       r.PostFormValue("title"),
			Date:        r.PostFormValue("date"),
			StartTime:   r.PostFormValue("start_time"),
			EndTime:     r.PostFormValue("end_time"),
			Description: r.PostFormValue("description"),
			EventType:   r.PostFormValue("event_type"),
		}
		return input, nil
	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return input, err
		}
		return input, nil
	}
}
