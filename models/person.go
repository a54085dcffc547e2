package models

import "time"

// Role is an optional tag attached to a person. Only the values below are accepted.
type Role string

const (
	RoleNone   Role = ""
	RoleBoard  Role = "board"
	RoleNestor Role = "nestor"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleBoard, RoleNestor, RoleMember:
		return true
	}
	return false
}

type Person struct {
	ID        string    `bson:"_id" gorm:"primaryKey" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Role      Role      `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// PersonTally is a person together with their current stripe counts.
type PersonTally struct {
	Person
	Normal    int64 `json:"normal"`
	Fulfilled int64 `json:"fulfilled"`
	Headroom  int64 `json:"headroom"`
}
