package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleSensor  Role = "sensor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleSensor:
		return true
	}
	return false
}

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash,omitempty" json:"-"` // never expose
	Role         Role          `bson:"role" json:"role"`
	AuthToken    *string       `bson:"authToken,omitempty" json:"-"` // set only while logged in
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	LastLogin    *time.Time    `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
}

// HasSession reports whether the user currently holds an authentication token.
func (u *User) HasSession() bool {
	return u.AuthToken != nil && *u.AuthToken != ""
}
