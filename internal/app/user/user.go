/*
Package user contains the public representation of a chat participant.

The core never owns user records; it only resolves these read-only profile
fields from the durable store when delivering messages and room lists.
*/
package user

import "time"

// User carries the public profile fields of a participant.
type User struct {
	// ID is the stable opaque identifier carried by the user's credential.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is the account email shown alongside messages.
	Email string `json:"email,omitempty"`

	// Avatar is the URL of the user's avatar image.
	Avatar string `json:"avatar,omitempty"`

	// Status is "online" or "offline" as tracked by the presence subsystem.
	Status string `json:"status,omitempty"`

	// LastSeen is the time of the user's last disconnect; nil when the user
	// has never disconnected or is currently online.
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}
