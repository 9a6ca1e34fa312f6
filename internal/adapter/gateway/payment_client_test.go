package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/jatra/booking-engine/internal/adapter/gateway"
	"github.com/jatra/booking-engine/internal/core/domain"
	"github.com/jatra/booking-engine/internal/core/ports"
	"github.com/jatra/booking-engine/internal/platform/httpretry"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestInitiate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/initiate", r.URL.Path)

		var req ports.InitiatePaymentRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "res-1", req.ReservationID)

		json.NewEncoder(w).Encode(domain.Payment{ID: "pay-1", Status: domain.PaymentPending})
	}))
	defer server.Close()

	client := gateway.NewPaymentClient(server.URL, httpretry.NewClient(testLogger()))

	payment, err := client.Initiate(context.Background(), ports.InitiatePaymentRequest{
		UserID:        "user-1",
		ReservationID: "res-1",
		Amount:        1500,
		PaymentMethod: "card",
	})

	assert.NoError(t, err)
	if assert.NotNil(t, payment) {
		assert.Equal(t, "pay-1", payment.ID)
		assert.Equal(t, domain.PaymentPending, payment.Status)
	}
}

func TestInitiate_MissingPaymentID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := gateway.NewPaymentClient(server.URL, httpretry.NewClient(testLogger()))

	_, err := client.Initiate(context.Background(), ports.InitiatePaymentRequest{})

	assert.Error(t, err)
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay-1", r.URL.Path)
		json.NewEncoder(w).Encode(domain.Payment{ID: "pay-1", Status: domain.PaymentCompleted})
	}))
	defer server.Close()

	client := gateway.NewPaymentClient(server.URL, httpretry.NewClient(testLogger()))

	status, err := client.GetStatus(context.Background(), "pay-1")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, status)
}
