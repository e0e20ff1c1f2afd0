package calendar

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klokku/weekcal/internal/rest"
	"github.com/klokku/weekcal/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*mux.Router, *Service) {
	t.Helper()
	_, service, _, _ := setupService(t)
	handler := NewHandler(service)

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(user.WithUser(req.Context(), testUser)))
		})
	})
	r.HandleFunc("/api/calendar/event", handler.GetEvents).Methods("GET")
	r.HandleFunc("/api/calendar/event", handler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/event/upcoming", handler.GetUpcomingEvents).Methods("GET")
	r.HandleFunc("/api/calendar/event/{eventUid}", handler.GetEvent).Methods("GET")
	r.HandleFunc("/api/calendar/event/{eventUid}", handler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/calendar/event/{eventUid}", handler.DeleteEvent).Methods("DELETE")
	return r, service
}

func doRequest(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, reader))
	return w
}

func TestHandler_CreateEvent(t *testing.T) {
	t.Run("creates a timed event", func(t *testing.T) {
		r, _ := setupRouter(t)

		w := doRequest(r, http.MethodPost, "/api/calendar/event", EventDTO{
			Title: "Standup", Date: "2025-01-07", StartTime: "09:00", EndTime: "09:15", Color: "#3b82f6",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var dto EventDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.NotEmpty(t, dto.UID)
		assert.Equal(t, "Standup", dto.Title)
		assert.Equal(t, "2025-01-07", dto.Date)
		assert.Equal(t, "09:15", dto.EndTime)
	})

	invalid := []struct {
		name string
		dto  EventDTO
	}{
		{"missing title", EventDTO{Date: "2025-01-07"}},
		{"impossible date", EventDTO{Title: "x", Date: "2025-02-30"}},
		{"bad color", EventDTO{Title: "x", Date: "2025-01-07", Color: "blue"}},
		{"bad time", EventDTO{Title: "x", Date: "2025-01-07", StartTime: "25:99"}},
		{"end before start", EventDTO{Title: "x", Date: "2025-01-07", StartTime: "10:00", EndTime: "09:00"}},
		{"bad recurrence", EventDTO{Title: "x", Date: "2025-01-07", Recurrence: "FREQ=SOMETIMES"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupRouter(t)

			w := doRequest(r, http.MethodPost, "/api/calendar/event", tt.dto)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var errResp rest.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
			assert.Equal(t, "Invalid event", errResp.Error)
			assert.NotEmpty(t, errResp.Details)
		})
	}
}

func TestHandler_GetEvents(t *testing.T) {
	r, _ := setupRouter(t)
	doRequest(r, http.MethodPost, "/api/calendar/event", EventDTO{Title: "Gym", Date: "2025-01-06", StartTime: "18:00", Recurrence: "FREQ=WEEKLY;BYDAY=MO,WE"})
	doRequest(r, http.MethodPost, "/api/calendar/event", EventDTO{Title: "Holiday", Date: "2025-01-08", AllDay: true})

	w := doRequest(r, http.MethodGet, "/api/calendar/event?from=2025-01-06&to=2025-01-12", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var occurrences []OccurrenceDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&occurrences))
	require.Len(t, occurrences, 3)
	assert.Equal(t, "2025-01-06", occurrences[0].Day)
	assert.Equal(t, "Holiday", occurrences[1].Event.Title)
	assert.Equal(t, "Gym", occurrences[2].Event.Title)
	assert.Equal(t, "2025-01-08", occurrences[2].Day)
	assert.Equal(t, "2025-01-06", occurrences[2].Event.Date)

	t.Run("rejects a missing bound", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/calendar/event?from=2025-01-06", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a reversed range", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/calendar/event?from=2025-01-12&to=2025-01-06", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("accepts a full year", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/calendar/event?from=2024-01-01&to=2024-12-31", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects a range longer than a year", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/calendar/event?from=2025-01-01&to=2026-01-03", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_GetUpcomingEvents(t *testing.T) {
	r, _ := setupRouter(t)
	doRequest(r, http.MethodPost, "/api/calendar/event", EventDTO{Title: "Daily", Date: "2025-01-01", Recurrence: "FREQ=DAILY"})

	w := doRequest(r, http.MethodGet, "/api/calendar/event/upcoming?limit=2", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var occurrences []OccurrenceDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&occurrences))
	assert.Len(t, occurrences, 2)

	w = doRequest(r, http.MethodGet, "/api/calendar/event/upcoming?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_EventLifecycle(t *testing.T) {
	r, _ := setupRouter(t)
	w := doRequest(r, http.MethodPost, "/api/calendar/event", EventDTO{Title: "Review", Date: "2025-01-07", StartTime: "10:00"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	path := "/api/calendar/event/" + created.UID

	w = doRequest(r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	created.Title = "Design review"
	w = doRequest(r, http.MethodPut, path, created)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "Design review", updated.Title)
	assert.Equal(t, created.UID, updated.UID)

	w = doRequest(r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_UpdateEvent_UidMismatch(t *testing.T) {
	r, _ := setupRouter(t)
	w := doRequest(r, http.MethodPost, "/api/calendar/event", EventDTO{Title: "Review", Date: "2025-01-07"})
	var created EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	w = doRequest(r, http.MethodPut, "/api/calendar/event/"+created.UID, EventDTO{UID: "0b6a4bd2-2b8c-4f63-8d7e-5c1f0e0a9d11", Title: "x", Date: "2025-01-07"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_InvalidUid(t *testing.T) {
	r, _ := setupRouter(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodGet, "/api/calendar/event/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, http.MethodDelete, "/api/calendar/event/not-a-uuid", nil).Code)
}

func TestHandler_WithoutUser(t *testing.T) {
	_, service, _, _ := setupService(t)
	handler := NewHandler(service)
	w := httptest.NewRecorder()

	handler.GetEvents(w, httptest.NewRequest(http.MethodGet, "/api/calendar/event?from=2025-01-06&to=2025-01-12", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}
