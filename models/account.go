package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the roles an account can be created with.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Collection returns the Mongo collection accounts of this role live in.
func (r Role) Collection() string {
	if r == RoleAdmin {
		return "admins"
	}
	return "users"
}

// RedirectURL is the frontend route a freshly logged-in account is sent to.
func (r Role) RedirectURL() string {
	if r == RoleAdmin {
		return "/hospital-dashboard"
	}
	return "/document-upload"
}

// Account is a stored user or admin. NationalID and Documents are only
// meaningful for RoleUser, Organisation only for RoleAdmin.
type Account struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string        `bson:"username" json:"username"`
	PasswordHash string        `bson:"password" json:"-"` // never expose
	Role         Role          `bson:"role" json:"role"`
	NationalID   string        `bson:"aadhaarNumber,omitempty" json:"aadhaarNumber,omitempty"`
	Organisation string        `bson:"organisation,omitempty" json:"organisation,omitempty"`
	Documents    []string      `bson:"documents,omitempty" json:"documents,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
}
