package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserSignedInEvent is emitted after a successful login.
type UserSignedInEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// UserSignedInV1 is the typed event definition for logins.
// Subject: events.auth.v1.user-signed-in
var UserSignedInV1 = helper.EventDefinition[UserSignedInEvent](
	"auth", "UserSignedIn", "v1",
)

// UserSignedOutEvent is emitted after an access token has been revoked.
type UserSignedOutEvent struct {
	UserID    string    `json:"user_id"`
	TokenID   string    `json:"token_id"`
	Timestamp time.Time `json:"timestamp"`
}

// UserSignedOutV1 is the typed event definition for sign-outs.
// Subject: events.auth.v1.user-signed-out
var UserSignedOutV1 = helper.EventDefinition[UserSignedOutEvent](
	"auth", "UserSignedOut", "v1",
)
