package handlers

import (
	"net/http"

	mw "github.com/eventmate/eventmate-server/internal/http/middleware"
	"github.com/eventmate/eventmate-server/internal/http/response"
	"github.com/eventmate/eventmate-server/internal/service"
	"github.com/eventmate/eventmate-server/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type UsersHandler struct {
	Service service.UserService
}

func NewUsersHandler(svc service.UserService) *UsersHandler {
	return &UsersHandler{Service: svc}
}

func (h *UsersHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireJWT)
	r.Get("/profile", h.profile)
	r.Put("/profile", h.updateProfile)
	r.Get("/search", h.search)
	return r
}

func (h *UsersHandler) profile(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.Service.GetProfile(r.Context(), claims.Sub)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load profile", "error", err)
		response.InternalError(w, "error loading profile")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":           user,
		"complete":       user.ProfileComplete(),
		"missing_fields": user.MissingProfileFields(),
	})
}

type updateProfileReq struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	CompanyName string `json:"company_name"`
	JobTitle    string `json:"job_title"`
}

func (h *UsersHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var in updateProfileReq
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	user, err := h.Service.UpdateProfile(r.Context(), claims.Sub, in.FullName, in.PhoneNumber, in.CompanyName, in.JobTitle)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) search(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	users, err := h.Service.SearchUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		logger.ErrorContext(r.Context(), "User search failed", "error", err)
		response.InternalError(w, "error searching users")
		return
	}

	response.WriteJSON(w, http.StatusOK, users)
}
