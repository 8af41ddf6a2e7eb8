package model

// Session is recorded on every successful login.
//
// Active is set on creation and never cleared; there is no session-closing
// transition.
type Session struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	LoginTime string `json:"loginTime"`
	Device    string `json:"device"`
	IsAdmin   bool   `json:"isAdmin"`
	Active    bool   `json:"active"`
}
