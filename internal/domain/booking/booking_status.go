package booking

import "fmt"

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusQuoted    Status = "quoted"
	StatusPaid      Status = "paid"
	StatusRepairing Status = "repairing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
// quoted->pending only happens when a quote is withdrawn or rejected, and
// quoted->accepted when the customer accepts a quote without paying up front.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusQuoted, StatusRejected, StatusCancelled},
	StatusAccepted:  {StatusRepairing, StatusCancelled},
	StatusQuoted:    {StatusAccepted, StatusPaid, StatusPending, StatusCancelled},
	StatusPaid:      {StatusRepairing},
	StatusRepairing: {StatusReady},
	StatusReady:     {StatusCompleted},
	StatusCompleted: {},
	StatusRejected:  {},
	StatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s Status) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CanBeCancelled returns true if the customer may cancel from this status.
// Once payment is captured only an approved refund can void the booking.
func (s Status) CanBeCancelled() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// PaymentCaptured returns true while the customer's money is held against the
// booking (paid but not yet released by pickup confirmation). Refund cases may
// only be opened in these states.
func (s Status) PaymentCaptured() bool {
	switch s {
	case StatusPaid, StatusRepairing, StatusReady:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
