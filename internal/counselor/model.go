// Package counselor provides the directory of platform users authorized to
// review pending responses.
package counselor

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a counselor does not exist.
	ErrNotFound = errors.New("counselor not found")
)

// Counselor maps a platform user to their review credentials and capacity.
// Provisioning happens through an administrative step; the workflow engine
// only reads these rows.
type Counselor struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	OrgID              string    `json:"org_id"`
	Specializations    []string  `json:"specializations"`
	LicenseNumber      string    `json:"license_number"`
	LicenseType        string    `json:"license_type"`
	IsAvailable        bool      `json:"is_available"`
	MaxConcurrentCases int       `json:"max_concurrent_cases"`
	CreatedAt          time.Time `json:"created_at"`
}
