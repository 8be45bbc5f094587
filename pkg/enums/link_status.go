package enums

import "fmt"

// LinkStatus tracks the lifecycle of a payment link.
type LinkStatus string

const (
	LinkStatusPending LinkStatus = "pending"
	LinkStatusActive  LinkStatus = "active"
	LinkStatusPaid    LinkStatus = "paid"
	LinkStatusFailed  LinkStatus = "failed"
	LinkStatusExpired LinkStatus = "expired"
)

var validLinkStatuses = []LinkStatus{
	LinkStatusPending,
	LinkStatusActive,
	LinkStatusPaid,
	LinkStatusFailed,
	LinkStatusExpired,
}

// OpenLinkStatuses are the non-terminal statuses a link may occupy. The
// per-(booking, intent, method type) uniqueness invariant is scoped to these.
var OpenLinkStatuses = []LinkStatus{LinkStatusPending, LinkStatusActive}

// String implements fmt.Stringer.
func (l LinkStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LinkStatus.
func (l LinkStatus) IsValid() bool {
	for _, candidate := range validLinkStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further automatic transition may occur.
func (l LinkStatus) IsTerminal() bool {
	switch l {
	case LinkStatusPaid, LinkStatusFailed, LinkStatusExpired:
		return true
	default:
		return false
	}
}

// ParseLinkStatus converts raw input into a LinkStatus.
func ParseLinkStatus(value string) (LinkStatus, error) {
	for _, candidate := range validLinkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid link status %q", value)
}
