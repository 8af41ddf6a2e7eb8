package model

// Values sent as the status of a logged attempt.
const (
	AttemptStatusSuccess = "SUCCESS"
	AttemptStatusFailed  = "FAILED"
)

// MaskedAdminCode replaces the admin code in every attempt log.
const MaskedAdminCode = "***ADMIN***"

// LoginAttempt is a single, immutable gate check.
// The json names match the entries the browser-only deployment kept in its
// local storage so exported logs can be imported unchanged.
type LoginAttempt struct {
	Username  string `json:"user"`
	Code      string `json:"code"`
	Timestamp string `json:"time"`
	Success   bool   `json:"success"`
	IsAdmin   bool   `json:"isAdmin,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Country   string `json:"country,omitempty"`
}

// Status returns the status string reported for this attempt.
func (a LoginAttempt) Status() string {
	if a.Success {
		return AttemptStatusSuccess
	}
	return AttemptStatusFailed
}
