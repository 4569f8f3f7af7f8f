package domain

import "time"

// RevokedToken is a session token invalidated by logout. The raw token string
// is the key; the record only needs to outlive the token's own 24h expiry.
type RevokedToken struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}
