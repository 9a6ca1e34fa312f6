package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jatra/booking-engine/internal/core/domain"
)

// BookingRepository is the authoritative booking store. Status writes carry
// a terminal-state guard in SQL: once a booking reaches CONFIRMED,
// PAYMENT_FAILED or CANCELLED no further transition lands, so a late
// redelivered payment message becomes a no-op.
type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
	INSERT INTO bookings (id, user_id, journey_id, reservation_id, amount, status, seat_ids, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.UserID,
		booking.JourneyID,
		booking.ReservationID,
		booking.Amount,
		booking.Status,
		pq.Array(booking.SeatIDs),
		booking.CreatedAt,
		booking.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `
	SELECT id, user_id, journey_id, reservation_id, amount, status, payment_id, seat_ids, created_at, expires_at, confirmed_at
	FROM bookings
	WHERE id = $1
	`

	var booking domain.Booking
	var paymentID sql.NullString
	var confirmedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.JourneyID,
		&booking.ReservationID,
		&booking.Amount,
		&booking.Status,
		&paymentID,
		pq.Array(&booking.SeatIDs),
		&booking.CreatedAt,
		&booking.ExpiresAt,
		&confirmedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}

	if paymentID.Valid {
		booking.PaymentID = &paymentID.String
	}
	if confirmedAt.Valid {
		booking.ConfirmedAt = &confirmedAt.Time
	}

	return &booking, nil
}

// UpdateStatus writes a non-confirming status transition. Writing to a
// booking already in a terminal state returns domain.ErrBookingTerminal.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	query := `
	UPDATE bookings
	SET status = $1
	WHERE id = $2 AND status NOT IN ('CONFIRMED', 'PAYMENT_FAILED', 'CANCELLED')
	`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	return r.checkTransition(ctx, result, id)
}

// Confirm is the saga's single success write: status CONFIRMED, the
// gateway's payment id, and the confirmation timestamp in one statement.
func (r *BookingRepository) Confirm(ctx context.Context, id uuid.UUID, paymentID string, confirmedAt time.Time) error {
	query := `
	UPDATE bookings
	SET status = 'CONFIRMED', payment_id = $1, confirmed_at = $2
	WHERE id = $3 AND status NOT IN ('CONFIRMED', 'PAYMENT_FAILED', 'CANCELLED')
	`

	result, err := r.db.ExecContext(ctx, query, paymentID, confirmedAt, id)
	if err != nil {
		return err
	}

	return r.checkTransition(ctx, result, id)
}

func (r *BookingRepository) checkTransition(ctx context.Context, result sql.Result, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Nothing updated: either the booking is unknown or already terminal.
	var status domain.BookingStatus
	err = r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrBookingNotFound
		}
		return err
	}

	if status.IsTerminal() {
		return domain.ErrBookingTerminal
	}
	return fmt.Errorf("status update affected no rows for booking %s", id)
}

// ExpiredPending returns PENDING bookings whose expiry has passed, oldest
// first, for the expiry sweep.
func (r *BookingRepository) ExpiredPending(ctx context.Context, limit int) ([]domain.Booking, error) {
	query := `
	SELECT id, user_id, journey_id, reservation_id, amount, status, seat_ids, created_at, expires_at
	FROM bookings
	WHERE status = 'PENDING' AND expires_at < NOW()
	ORDER BY expires_at
	LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var booking domain.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.JourneyID,
			&booking.ReservationID,
			&booking.Amount,
			&booking.Status,
			pq.Array(&booking.SeatIDs),
			&booking.CreatedAt,
			&booking.ExpiresAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
