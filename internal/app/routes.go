package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Calendar events
	r.HandleFunc("/api/calendar/event", deps.CalendarHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/calendar/event", deps.CalendarHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/event/upcoming", deps.CalendarHandler.GetUpcomingEvents).Methods("GET")
	r.HandleFunc("/api/calendar/event/{eventUid}", deps.CalendarHandler.GetEvent).Methods("GET")
	r.HandleFunc("/api/calendar/event/{eventUid}", deps.CalendarHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/calendar/event/{eventUid}", deps.CalendarHandler.DeleteEvent).Methods("DELETE")

	// Week view
	r.HandleFunc("/api/week", deps.WeekViewHandler.GetWeek).Methods("GET")
	r.HandleFunc("/api/week/now", deps.WeekViewHandler.GetCurrentTime).Methods("GET")
	r.HandleFunc(nowStreamPath, deps.NowLineHandler.Stream).Methods("GET")
	r.HandleFunc("/api/week/ics", deps.WeekViewHandler.ExportWeek).Methods("GET")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
	r.HandleFunc("/api/user/{userUid}", deps.UserHandler.DeleteUser).Methods("DELETE")
}
