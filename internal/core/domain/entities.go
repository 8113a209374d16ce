package domain

import (
	"time"
)

// SpotStatus is the moderation state of a submitted spot.
type SpotStatus string

const (
	SpotPending  SpotStatus = "pending"
	SpotApproved SpotStatus = "approved"
	SpotRejected SpotStatus = "rejected"
)

// Spot is a jump/drop location. Heights are always stored in feet.
type Spot struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Location      GeoPoint   `json:"location"`
	HeightFeet    float64    `json:"height_feet"`
	HeightDisplay string     `json:"height_display,omitempty"` // computed field
	Status        SpotStatus `json:"status"`
	SubmittedBy   string     `json:"submitted_by,omitempty"`
	Distance      *float64   `json:"distance,omitempty"` // computed field
	CreatedAt     time.Time  `json:"created_at"`
}

// SpotEvent is published whenever a spot changes state.
type SpotEvent struct {
	SpotID      string     `json:"spot_id"`
	Name        string     `json:"name"`
	Location    GeoPoint   `json:"location"`
	Status      SpotStatus `json:"status"`
	SubmittedBy string     `json:"submitted_by"`
	Time        time.Time  `json:"time"`
}

// User is an account holder. The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Device is a push-notification registration for a user.
type Device struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
