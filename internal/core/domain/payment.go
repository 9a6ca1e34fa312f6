package domain

// PaymentMessage is the unit of work consumed by the payment saga. Retries
// re-publish a copy with RetryCount incremented; the original is gone once
// acknowledged.
type PaymentMessage struct {
	BookingID      string         `json:"bookingId"`
	UserID         string         `json:"userId"`
	ReservationID  string         `json:"reservationId"`
	Amount         float64        `json:"amount"`
	PaymentMethod  string         `json:"paymentMethod"`
	PaymentDetails map[string]any `json:"paymentDetails,omitempty"`
	RetryCount     int            `json:"retryCount"`
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
)

// Payment is the gateway's view of an initiated payment.
type Payment struct {
	ID     string        `json:"id"`
	Status PaymentStatus `json:"status"`
}
