package refund

import "fmt"

// Status represents the state of a refund case. The case lifecycle is
// independent from the booking's; an approved case force-cancels its booking.
type Status string

const (
	StatusRequested     Status = "requested"
	StatusUnderReview   Status = "under_review"
	StatusShopResponded Status = "shop_responded"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	// StatusCompleted is a legal terminal value with no producing operation in
	// the current flow; it is accepted on read so externally-settled cases
	// still parse.
	StatusCompleted Status = "completed"
)

var knownStatuses = map[Status]struct{}{
	StatusRequested:     {},
	StatusUnderReview:   {},
	StatusShopResponded: {},
	StatusApproved:      {},
	StatusRejected:      {},
	StatusCompleted:     {},
}

// IsValid returns true if the status is a recognized refund status.
func (s Status) IsValid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// IsResolved returns true once the shop has issued a final decision.
func (s Status) IsResolved() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCompleted:
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
		return "", fmt.Errorf("invalid refund status: %s", s)
	}
	return status, nil
}
