package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klokku/weekcal/internal/rest"
	"github.com/klokku/weekcal/pkg/user"
	"github.com/klokku/weekcal/pkg/weekrange"
	log "github.com/sirupsen/logrus"
)

const (
	defaultUpcomingLimit = 5
	// maxRangeDays bounds GET /api/calendar/event to roughly one year.
	maxRangeDays = 366
)

type EventDTO struct {
	UID         string `json:"uid,omitempty"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=4000"`
	Location    string `json:"location,omitempty" validate:"max=255"`
	Color       string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"startTime,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime     string `json:"endTime,omitempty" validate:"omitempty,datetime=15:04"`
	AllDay      bool   `json:"allDay"`
	Recurrence  string `json:"recurrence,omitempty" validate:"max=512"`
}

type OccurrenceDTO struct {
	Day   string   `json:"day"`
	Event EventDTO `json:"event"`
}

type EventService interface {
	AddEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, uid uuid.UUID) (Event, error)
	GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Occurrence, error)
	GetUpcomingEvents(ctx context.Context, limit int) ([]Occurrence, error)
	ModifyEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, uid uuid.UUID) error
}

type Handler struct {
	service EventService
}

func NewHandler(service EventService) *Handler {
	return &Handler{service: service}
}

// GetEvents godoc
// @Summary List event occurrences
// @Description Get every occurrence between two dates, inclusive
// @Tags Calendar
// @Produce json
// @Param from query string true "First day, YYYY-MM-DD"
// @Param to query string true "Last day, YYYY-MM-DD"
// @Success 200 {array} OccurrenceDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/calendar/event [get]
// @Security XUserId
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting calendar events")
	from, err := weekrange.ParseDate(r.URL.Query().Get("from"), time.UTC)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid 'from' date", "expected YYYY-MM-DD")
		return
	}
	to, err := weekrange.ParseDate(r.URL.Query().Get("to"), time.UTC)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid 'to' date", "expected YYYY-MM-DD")
		return
	}
	if to.After(from.AddDate(0, 0, maxRangeDays)) {
		rest.WriteError(w, http.StatusBadRequest, "Range too long", fmt.Sprintf("at most %d days between 'from' and 'to'", maxRangeDays))
		return
	}

	occurrences, err := h.service.GetEvents(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, OccurrencesToDTO(occurrences))
}

// GetUpcomingEvents godoc
// @Summary List the next occurrences
// @Tags Calendar
// @Produce json
// @Param limit query int false "Maximum number of occurrences, 5 by default"
// @Success 200 {array} OccurrenceDTO
// @Router /api/calendar/event/upcoming [get]
// @Security XUserId
func (h *Handler) GetUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := rest.IntQuery(r, "limit", defaultUpcomingLimit)
	if err != nil || limit <= 0 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid 'limit'", "expected a positive integer")
		return
	}
	occurrences, err := h.service.GetUpcomingEvents(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, OccurrencesToDTO(occurrences))
}

// GetEvent godoc
// @Summary Get a single event
// @Tags Calendar
// @Produce json
// @Param eventUid path string true "Event UID"
// @Success 200 {object} EventDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/calendar/event/{eventUid} [get]
// @Security XUserId
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	uid, ok := eventUid(w, r)
	if !ok {
		return
	}
	event, err := h.service.GetEvent(r.Context(), uid)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EventToDTO(event))
}

// CreateEvent godoc
// @Summary Create an event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param event body EventDTO true "Event"
// @Success 201 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/calendar/event [post]
// @Security XUserId
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating calendar event")
	var dto EventDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", rest.ValidationDetails(err))
		return
	}
	event, err := dtoToEvent(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
		return
	}

	created, err := h.service.AddEvent(r.Context(), event)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, EventToDTO(created))
}

// UpdateEvent godoc
// @Summary Update an event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param eventUid path string true "Event UID"
// @Param event body EventDTO true "Event"
// @Success 200 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/calendar/event/{eventUid} [put]
// @Security XUserId
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	uid, ok := eventUid(w, r)
	if !ok {
		return
	}
	var dto EventDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", rest.ValidationDetails(err))
		return
	}
	if dto.UID != "" && dto.UID != uid.String() {
		rest.WriteError(w, http.StatusBadRequest, "Event uid in body does not match the path", "")
		return
	}
	dto.UID = uid.String()
	event, err := dtoToEvent(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
		return
	}

	updated, err := h.service.ModifyEvent(r.Context(), event)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EventToDTO(updated))
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags Calendar
// @Param eventUid path string true "Event UID"
// @Success 204 "No Content"
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/calendar/event/{eventUid} [delete]
// @Security XUserId
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	uid, ok := eventUid(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteEvent(r.Context(), uid); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, "User not found", "")
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", "")
	case errors.Is(err, ErrInvalidEvent):
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
	default:
		log.Errorf("calendar request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func eventUid(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	uid, err := uuid.Parse(mux.Vars(r)["eventUid"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event uid", err.Error())
		return uuid.UUID{}, false
	}
	return uid, true
}

func dtoToEvent(dto EventDTO) (Event, error) {
	date, err := weekrange.ParseDate(dto.Date, time.UTC)
	if err != nil {
		return Event{}, err
	}
	event := Event{
		Title:       dto.Title,
		Description: dto.Description,
		Location:    dto.Location,
		Color:       dto.Color,
		Date:        date,
		StartTime:   dto.StartTime,
		EndTime:     dto.EndTime,
		AllDay:      dto.AllDay,
		Recurrence:  dto.Recurrence,
	}
	if dto.UID != "" {
		uid, err := uuid.Parse(dto.UID)
		if err != nil {
			return Event{}, err
		}
		event.UID = uuid.NullUUID{UUID: uid, Valid: true}
	}
	return event, nil
}

// EventToDTO is shared with the week view.
func EventToDTO(e Event) EventDTO {
	dto := EventDTO{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Color:       e.Color,
		Date:        weekrange.FormatDate(e.Date),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		AllDay:      e.AllDay,
		Recurrence:  e.Recurrence,
	}
	if e.UID.Valid {
		dto.UID = e.UID.UUID.String()
	}
	return dto
}

func OccurrencesToDTO(occurrences []Occurrence) []OccurrenceDTO {
	dtos := make([]OccurrenceDTO, 0, len(occurrences))
	for _, o := range occurrences {
		dtos = append(dtos, OccurrenceDTO{Day: weekrange.FormatDate(o.Day), Event: EventToDTO(o.Event)})
	}
	return dtos
}
