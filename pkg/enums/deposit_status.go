package enums

import "fmt"

// DepositStatus tracks the lifecycle of a security-deposit authorization.
type DepositStatus string

const (
	DepositStatusPending    DepositStatus = "pending"
	DepositStatusAuthorized DepositStatus = "authorized"
	DepositStatusReleased   DepositStatus = "released"
	DepositStatusFailed     DepositStatus = "failed"
)

var validDepositStatuses = []DepositStatus{
	DepositStatusPending,
	DepositStatusAuthorized,
	DepositStatusReleased,
	DepositStatusFailed,
}

// OpenDepositStatuses are the statuses that still hold (or may hold) funds.
var OpenDepositStatuses = []DepositStatus{DepositStatusPending, DepositStatusAuthorized}

// String implements fmt.Stringer.
func (d DepositStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DepositStatus.
func (d DepositStatus) IsValid() bool {
	for _, candidate := range validDepositStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transition.
func (d DepositStatus) IsTerminal() bool {
	switch d {
	case DepositStatusReleased, DepositStatusFailed:
		return true
	default:
		return false
	}
}

// ParseDepositStatus converts raw input into a DepositStatus.
func ParseDepositStatus(value string) (DepositStatus, error) {
	for _, candidate := range validDepositStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deposit status %q", value)
}
