package audit

import (
	"time"

	id "udyam/pkg/domain"
)

// Event is emitted from admin-facing operations to capture key actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	AdminID   id.AdminID
	Action    string
	Target    string
	IPAddress string
	UserAgent string
}
