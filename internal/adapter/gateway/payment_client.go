package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/ports"
	"github.com/jatra/booking-engine/internal/platform/httpretry"
)

// PaymentClient talks to the external payment gateway service over HTTP.
// Retry settings here are network-level, for a single attempt; the saga's
// business-level retry sits above this.
type PaymentClient struct {
	baseURL string
	http    *httpretry.Client
}

func NewPaymentClient(baseURL string, http *httpretry.Client) *PaymentClient {
	return &PaymentClient{baseURL: baseURL, http: http}
}

var _ ports.PaymentGateway = (*PaymentClient)(nil)

func (c *PaymentClient) Initiate(ctx context.Context, req ports.InitiatePaymentRequest) (*domain.Payment, error) {
	body, err := c.http.PostJSON(ctx, c.baseURL+"/payments/initiate", req, "Payment Service", httpretry.Config{
		MaxRetries:   2,
		InitialDelay: 1 * time.Second,
		Timeout:      30 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	var payment domain.Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("decode initiate response: %w", err)
	}
	if payment.ID == "" {
		return nil, fmt.Errorf("initiate response missing payment id")
	}

	return &payment, nil
}

func (c *PaymentClient) GetStatus(ctx context.Context, paymentID string) (domain.PaymentStatus, error) {
	body, err := c.http.GetJSON(ctx, c.baseURL+"/payments/"+paymentID, "Payment Service", httpretry.Config{
		MaxRetries:   1,
		InitialDelay: 500 * time.Millisecond,
		Timeout:      5 * time.Second,
	})
	if err != nil {
		return "", err
	}

	var payment domain.Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}

	return payment.Status, nil
}
