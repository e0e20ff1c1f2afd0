package weekview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/klokku/weekcal/internal/rest"
	"github.com/klokku/weekcal/pkg/calendar"
	"github.com/klokku/weekcal/pkg/layout"
	"github.com/klokku/weekcal/pkg/user"
	"github.com/klokku/weekcal/pkg/weekrange"
	log "github.com/sirupsen/logrus"
)

// defaultViewportWidth is used when the client does not report its width.
const defaultViewportWidth = 1024

type WeekViewDTO struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Week       string   `json:"week"`
	Year       int      `json:"year"`
	Label      string   `json:"label"`
	HourHeight float64  `json:"hourHeight"`
	Days       []DayDTO `json:"days"`
	NowLine    *float64 `json:"nowLine,omitempty"`
}

type DayDTO struct {
	Date    string              `json:"date"`
	Weekday string              `json:"weekday"`
	IsToday bool                `json:"isToday"`
	AllDay  []calendar.EventDTO `json:"allDay"`
	Timed   []TimedEventDTO     `json:"timed"`
}

type TimedEventDTO struct {
	Event  calendar.EventDTO `json:"event"`
	Top    float64           `json:"top"`
	Height float64           `json:"height"`
}

type NowLineDTO struct {
	Date string  `json:"date"`
	Time string  `json:"time"`
	Top  float64 `json:"top"`
}

type WeekService interface {
	Today(ctx context.Context) time.Time
	GetWeek(ctx context.Context, date time.Time, viewportWidth int) (WeekView, error)
	CurrentTime(ctx context.Context, viewportWidth int) NowLine
	ExportWeek(ctx context.Context, date time.Time) ([]byte, error)
}

type Handler struct {
	service WeekService
}

func NewHandler(service WeekService) *Handler {
	return &Handler{service: service}
}

// GetWeek godoc
// @Summary Get the laid out week
// @Description Week containing the given date, with every event positioned on the day grid
// @Tags Week
// @Produce json
// @Param date query string false "Any day of the week, YYYY-MM-DD; today by default"
// @Param width query int false "Viewport width in logical pixels"
// @Success 200 {object} WeekViewDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/week [get]
// @Security XUserId
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	log.Debug("Getting week view")
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	width, ok := widthParam(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetWeek(r.Context(), date, width)
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			rest.WriteError(w, http.StatusForbidden, "User not found", "")
			return
		}
		log.Errorf("failed to build week view: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, WeekViewToDTO(view))
}

// GetCurrentTime godoc
// @Summary Get the current-time line
// @Tags Week
// @Produce json
// @Param width query int false "Viewport width in logical pixels"
// @Success 200 {object} NowLineDTO
// @Router /api/week/now [get]
// @Security XUserId
func (h *Handler) GetCurrentTime(w http.ResponseWriter, r *http.Request) {
	width, ok := widthParam(w, r)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, NowLineToDTO(h.service.CurrentTime(r.Context(), width)))
}

// ExportWeek godoc
// @Summary Export the week as iCalendar
// @Tags Week
// @Produce text/calendar
// @Param date query string false "Any day of the week, YYYY-MM-DD; today by default"
// @Success 200 {string} string "iCalendar document"
// @Router /api/week/ics [get]
// @Security XUserId
func (h *Handler) ExportWeek(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	body, err := h.service.ExportWeek(r.Context(), date)
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			rest.WriteError(w, http.StatusForbidden, "User not found", "")
			return
		}
		log.Errorf("failed to export week: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="week-%s.ics"`, weekrange.WeekNumberFromDate(date)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Errorf("failed to write ics response: %v", err)
	}
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.service.Today(r.Context()), true
	}
	date, err := weekrange.ParseDate(raw, time.UTC)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid 'date'", "expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func widthParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	width, err := rest.IntQuery(r, "width", defaultViewportWidth)
	if err != nil || width <= 0 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid 'width'", "expected a positive integer")
		return 0, false
	}
	return width, true
}

func WeekViewToDTO(view WeekView) WeekViewDTO {
	dto := WeekViewDTO{
		Start:      weekrange.FormatDate(view.Window.Start),
		End:        weekrange.FormatDate(view.Window.End),
		Week:       view.Window.Week.String(),
		Year:       view.Window.Year,
		Label:      view.Window.Label(),
		HourHeight: view.HourHeight,
		Days:       make([]DayDTO, 0, len(view.Days)),
		NowLine:    view.NowLine,
	}
	for _, d := range view.Days {
		day := DayDTO{
			Date:    weekrange.FormatDate(d.Date),
			Weekday: d.Date.Weekday().String(),
			IsToday: d.IsToday,
			AllDay:  make([]calendar.EventDTO, 0, len(d.AllDay)),
			Timed:   make([]TimedEventDTO, 0, len(d.Timed)),
		}
		for _, o := range d.AllDay {
			day.AllDay = append(day.AllDay, calendar.EventToDTO(o.Event))
		}
		for _, o := range d.Timed {
			day.Timed = append(day.Timed, timedToDTO(o.Event, o.Position))
		}
		dto.Days = append(dto.Days, day)
	}
	return dto
}

func timedToDTO(e calendar.Event, p layout.Position) TimedEventDTO {
	return TimedEventDTO{Event: calendar.EventToDTO(e), Top: p.Top, Height: p.Height}
}

func NowLineToDTO(n NowLine) NowLineDTO {
	return NowLineDTO{Date: weekrange.FormatDate(n.Date), Time: n.Time, Top: n.Top}
}
