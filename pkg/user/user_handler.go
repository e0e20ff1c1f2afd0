package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/weekcal/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid         string      `json:"uid"`
	Username    string      `json:"username"`
	DisplayName string      `json:"displayName"`
	Settings    SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone string `json:"timezone"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{userService: userService}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating user")

	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	log.Tracef("Creating new user: %+v", dto)

	created, err := h.userService.CreateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		switch {
		case errors.Is(err, ErrUserDataInvalid):
			rest.WriteError(w, http.StatusBadRequest, "Invalid user data", "username and displayName are required, timezone must be an IANA zone")
		case errors.Is(err, ErrUsernameTaken):
			rest.WriteError(w, http.StatusConflict, "Username already taken", "")
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	rest.WriteJSON(w, http.StatusCreated, userToDTO(created))
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	current, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoUser) || errors.Is(err, ErrUserNotFound) {
			rest.WriteError(w, http.StatusForbidden, "User not found", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(current))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	updated, err := h.userService.UpdateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		switch {
		case errors.Is(err, ErrNoUser), errors.Is(err, ErrUserNotFound):
			rest.WriteError(w, http.StatusForbidden, "User not found", "")
		case errors.Is(err, ErrUserDataInvalid):
			rest.WriteError(w, http.StatusBadRequest, "Invalid user data", "")
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(updated))
}

func (h *Handler) GetAvailableUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAllUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, userToDTO(u))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["userUid"]
	if err := h.userService.DeleteUser(r.Context(), uid); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			rest.WriteError(w, http.StatusNotFound, "User not found", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) IsUsernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	available, err := h.userService.IsUsernameAvailable(r.Context(), username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func userToDTO(u User) UserDTO {
	return UserDTO{
		Uid:         u.Uid,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Settings:    SettingsDTO{Timezone: u.Settings.Timezone},
	}
}

func dtoToUser(dto UserDTO) User {
	return User{
		Uid:         dto.Uid,
		Username:    dto.Username,
		DisplayName: dto.DisplayName,
		Settings:    Settings{Timezone: dto.Settings.Timezone},
	}
}
