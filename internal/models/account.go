package models

// Account is one logged-in Kurozora identity as kept in the local roster.
type Account struct {
	ID         string `json:"id"`
	Token      string `json:"token"`
	Username   string `json:"username"`
	ProfileURL string `json:"profileUrl,omitempty"`
}
