package domain

// Reservation records which seats a reservation id holds, so that a later
// release by reservation id alone can find its lock keys. Lives in the key
// store with the same TTL as the seat locks themselves.
type Reservation struct {
	ReservationID string   `json:"reservationId"`
	JourneyID     string   `json:"journeyId"`
	UserID        string   `json:"userId"`
	SeatIDs       []string `json:"seatIds"`
}
