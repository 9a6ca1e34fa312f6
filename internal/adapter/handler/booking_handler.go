package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/services"
)

type BookingHandler struct {
	svc *services.ReservationService
}

func NewBookingHandler(svc *services.ReservationService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req services.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	resp, err := h.svc.Reserve(r.Context(), req)
	if err != nil {
		var conflict *domain.SeatConflictError
		switch {
		case errors.As(err, &conflict):
			// The precise seat that blocked, for the user-facing message.
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   conflict.Error(),
				"seat_id": conflict.SeatID,
			})
		case errors.Is(err, domain.ErrIdempotencyInProgress):
			writeError(w, http.StatusConflict, err.Error())
		case isValidationError(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := h.svc.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	json.NewEncoder(w).Encode(bookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	id, err := uuid.Parse(req.BookingID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	if err := h.svc.Cancel(r.Context(), id, "cancelled by user"); err != nil {
		switch {
		case errors.Is(err, domain.ErrBookingNotFound):
			writeError(w, http.StatusNotFound, "booking not found")
		case errors.Is(err, domain.ErrBookingTerminal):
			writeError(w, http.StatusConflict, "booking can no longer be cancelled")
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": string(domain.BookingCancelled)})
}

// ReleaseReservation is the idempotent release endpoint consumed by
// collaborators; safe to call even if the seats were already released.
func (h *BookingHandler) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ReservationID string `json:"reservation_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReservationID == "" {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := h.svc.ReleaseReservation(r.Context(), req.ReservationID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "released"})
}

func bookingResponse(b *domain.Booking) map[string]any {
	resp := map[string]any{
		"booking_id":     b.ID.String(),
		"user_id":        b.UserID.String(),
		"journey_id":     b.JourneyID.String(),
		"reservation_id": b.ReservationID.String(),
		"amount":         b.Amount,
		"status":         string(b.Status),
		"seat_ids":       b.SeatIDs,
		"created_at":     b.CreatedAt,
		"expires_at":     b.ExpiresAt,
	}
	if b.PaymentID != nil {
		resp["payment_id"] = *b.PaymentID
	}
	if b.ConfirmedAt != nil {
		resp["confirmed_at"] = *b.ConfirmedAt
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func isValidationError(err error) bool {
	switch err.Error() {
	case "invalid user id", "invalid journey id", "no seats selected", "invalid amount":
		return true
	}
	return false
}
