package contacts

import (
	"fmt"
	"strings"

	"github.com/matheus3301/bcast/internal/directory"
)

// Status is the presence shown for a contact.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusPending Status = "pending"
	// StatusUnknown marks legacy records, which carry no status signal.
	StatusUnknown Status = "unknown"
)

// Flags are the directory flags status is derived from. All false for
// legacy records.
type Flags struct {
	Active      bool `json:"active"`
	Interviewed bool `json:"interviewed"`
	Subscribed  bool `json:"subscribed"`
}

// Contact is one directory entry as the dashboard sees it.
type Contact struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Phone    string           `json:"phone"`
	Status   Status           `json:"status"`
	Flags    Flags            `json:"flags"`
	Selected bool             `json:"selected"`
	Source   directory.Source `json:"source"`
}

// DeriveStatus maps modern directory flags to a status. Inactivity wins
// over everything; interview or subscription then means online.
func DeriveStatus(f Flags) Status {
	switch {
	case !f.Active:
		return StatusOffline
	case f.Interviewed:
		return StatusOnline
	case f.Subscribed:
		return StatusOnline
	default:
		return StatusPending
	}
}

// ParseStatus parses a status filter. "" and "all" mean no filter.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "", "all":
		return "", nil
	case StatusOnline, StatusOffline, StatusPending, StatusUnknown:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}
