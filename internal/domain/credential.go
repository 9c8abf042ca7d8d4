package domain

import "time"

// TokenPair is the raw result of an OAuth exchange or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserCredential is the stored OAuth state for one user. ExpiresAt always
// reflects the token actually usable; reads for pipeline use must go through
// the credential manager's freshness check.
type UserCredential struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
