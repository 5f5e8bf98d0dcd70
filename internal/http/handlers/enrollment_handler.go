package handlers

import (
	"net/http"
	"strconv"

	"github.com/eventmate/eventmate-server/internal/enrollment"
	mw "github.com/eventmate/eventmate-server/internal/http/middleware"
	"github.com/eventmate/eventmate-server/internal/http/response"
	"github.com/eventmate/eventmate-server/internal/payment"
	"github.com/go-chi/chi/v5"
)

// EnrollmentHandler exposes the step-by-step enrollment flow. Each
// mutation returns the full session so a client can render whatever step
// the flow landed on.
type EnrollmentHandler struct {
	Flow *enrollment.Service
}

func NewEnrollmentHandler(flow *enrollment.Service) *EnrollmentHandler {
	return &EnrollmentHandler{Flow: flow}
}

func (h *EnrollmentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireJWT)
	r.Post("/", h.start)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.abandon)
	r.Put("/{id}/seat", h.setSeat)
	r.Get("/{id}/seatmap", h.seatMap)
	r.Get("/{id}/members", h.searchMembers)
	r.Post("/{id}/members", h.addMember)
	r.Delete("/{id}/members/{userID}", h.removeMember)
	r.Post("/{id}/submit", h.submit)
	r.Post("/{id}/promo", h.promo)
	r.Post("/{id}/proceed", h.proceed)
	r.Post("/{id}/payment", h.choosePayment)
	r.Post("/{id}/confirm", h.confirm)
	r.Post("/{id}/back", h.back)
	return r
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	claims := mw.Claims(r)
	if claims == nil || claims.Sub == 0 {
		response.Unauthorized(w, "unauthorized")
		return 0, false
	}
	return claims.Sub, true
}

type startReq struct {
	EventID   int64  `json:"event_id"`
	GroupCode string `json:"group_code,omitempty"`
}

func (h *EnrollmentHandler) start(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var in startReq
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	if in.EventID <= 0 {
		response.BadRequest(w, "event_id is required")
		return
	}
	sess, err := h.Flow.Start(r.Context(), uid, in.EventID, in.GroupCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, sess)
}

func (h *EnrollmentHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	sess, err := h.Flow.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

func (h *EnrollmentHandler) abandon(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.Flow.Abandon(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setSeatReq struct {
	SeatNumber *int `json:"seat_number"`
}

func (h *EnrollmentHandler) setSeat(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var in setSeatReq
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	sess, err := h.Flow.SetSeat(r.Context(), uid, chi.URLParam(r, "id"), in.SeatNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

func (h *EnrollmentHandler) seatMap(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	sess, err := h.Flow.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess.SeatMap())
}

func (h *EnrollmentHandler) searchMembers(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	users, err := h.Flow.SearchMembers(r.Context(), uid, chi.URLParam(r, "id"), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, users)
}

type addMemberReq struct {
	Email string `json:"email"`
}

func (h *EnrollmentHandler) addMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var in addMemberReq
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	sess, err := h.Flow.AddMember(r.Context(), uid, chi.URLParam(r, "id"), in.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

func (h *EnrollmentHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	memberID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}
	sess, err := h.Flow.RemoveMember(r.Context(), uid, chi.URLParam(r, "id"), memberID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

func (h *EnrollmentHandler) submit(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var form enrollment.Form
	if err := decodeJSON(r, &form); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	sess, err := h.Flow.SubmitForm(r.Context(), uid, chi.URLParam(r, "id"), form)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

type promoReq struct {
	Code string `json:"code"`
}

func (h *EnrollmentHandler) promo(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var in promoReq
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	sess, err := h.Flow.ApplyPromo(r.Context(), uid, chi.URLParam(r, "id"), in.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

func (h *EnrollmentHandler) proceed(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	sess, err := h.Flow.AcceptBill(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

type choosePaymentReq struct {
	Method string `json:"method"`
}

func (h *EnrollmentHandler) choosePayment(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var in choosePaymentReq
	if err := decodeJSON(r, &in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}
	sess, err := h.Flow.ChoosePaymentMethod(r.Context(), uid, chi.URLParam(r, "id"), payment.Method(in.Method))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

func (h *EnrollmentHandler) confirm(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	sess, err := h.Flow.ConfirmPayment(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

func (h *EnrollmentHandler) back(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	sess, err := h.Flow.Back(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}
