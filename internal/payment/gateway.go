// Package payment defines the port to the external payment settlement
// collaborator. Real payment processing lives outside this service; the core
// only reacts to the outcome.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Outcome of a payment attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// MethodDetails describes how the customer wants to pay.
type MethodDetails struct {
	Method    string `json:"method" binding:"required"`
	Reference string `json:"reference"`
}

// Result is the gateway's answer. PENDING settles later via the payment
// events topic.
type Result struct {
	Status        Status `json:"status"`
	TransactionID string `json:"transactionId"`
	Error         string `json:"error,omitempty"`
}

// Gateway is the settlement port consumed by the booking engine.
type Gateway interface {
	ProcessPayment(ctx context.Context, bookingID uuid.UUID, amount float64, method MethodDetails) (Result, error)
}

// SimulatedGateway approves every payment with a generated transaction id.
// Outcome can be overridden to exercise FAILED and PENDING paths.
type SimulatedGateway struct {
	Outcome Status
}

// NewSimulatedGateway creates a gateway that always succeeds.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{Outcome: StatusSuccess}
}

// ProcessPayment returns the configured outcome.
func (g *SimulatedGateway) ProcessPayment(_ context.Context, bookingID uuid.UUID, amount float64, _ MethodDetails) (Result, error) {
	if amount <= 0 {
		return Result{Status: StatusFailed, Error: "amount must be positive"}, nil
	}
	res := Result{Status: g.Outcome}
	switch g.Outcome {
	case StatusSuccess, StatusPending:
		res.TransactionID = fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
	case StatusFailed:
		res.Error = fmt.Sprintf("payment declined for booking %s", bookingID)
	}
	return res, nil
}
