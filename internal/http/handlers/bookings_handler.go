package handlers

import (
	"net/http"
	"strconv"

	"github.com/eventmate/eventmate-server/internal/domain"
	mw "github.com/eventmate/eventmate-server/internal/http/middleware"
	"github.com/eventmate/eventmate-server/internal/http/response"
	"github.com/eventmate/eventmate-server/internal/service"
	"github.com/eventmate/eventmate-server/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type BookingsHandler struct {
	Service service.BookingService
}

func NewBookingsHandler(svc service.BookingService) *BookingsHandler {
	return &BookingsHandler{Service: svc}
}

func (h *BookingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireJWT)
	r.Post("/enroll", h.enroll)
	r.Get("/", h.listMine)
	r.Delete("/{id}", h.cancel)
	r.Get("/event/{eventID}/seats", h.seats)
	r.Get("/event/{eventID}/check", h.check)
	r.Get("/event/{eventID}", h.listForEvent)
	r.Get("/group/{code}", h.groupRoster)
	return r
}

func (h *BookingsHandler) enroll(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req domain.EnrollRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	result, err := h.Service.EnrollIdempotent(r.Context(), claims.Sub, &req, idempotencyKey)
	if err != nil {
		logger.ErrorContext(r.Context(), "Enroll failed", "error", err, "event_id", req.EventID)
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, result)
}

func (h *BookingsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	bookings, err := h.Service.ListMyBookings(r.Context(), claims.Sub, limit, offset)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list bookings", "error", err)
		response.InternalError(w, "error listing bookings")
		return
	}

	response.WriteJSON(w, http.StatusOK, bookings)
}

func (h *BookingsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid id")
		return
	}

	if err := h.Service.CancelBooking(r.Context(), claims.Sub, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingsHandler) seats(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}

	seats, err := h.Service.BookedSeats(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":     eventID,
		"booked_seats": seats,
	})
}

func (h *BookingsHandler) check(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}

	enrolled, err := h.Service.IsEnrolled(r.Context(), claims.Sub, eventID)
	if err != nil {
		response.InternalError(w, "enrollment check failed")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]bool{"enrolled": enrolled})
}

func (h *BookingsHandler) listForEvent(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid event id")
		return
	}

	limit, offset, ok := pagination(w, r)
	if !ok {
		return
	}

	bookings, err := h.Service.ListEventBookings(r.Context(), claims.Sub, eventID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, bookings)
}

func (h *BookingsHandler) groupRoster(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		response.BadRequest(w, "invalid group code")
		return
	}

	bookings, err := h.Service.GroupRoster(r.Context(), claims.Sub, code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"group_code": code,
		"bookings":   bookings,
	})
}

func pagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(w, "invalid limit")
			return 0, 0, false
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(w, "invalid offset")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}
