package models

import "time"

// SchikkoTerm is the administrator record for one cycle (calendar year).
// An unverified term is an enrollment in progress and grants no authority.
type SchikkoTerm struct {
	Cycle        string    `bson:"_id" gorm:"primaryKey" json:"cycle"`
	FirstName    string    `bson:"first_name" json:"firstName"`
	LastName     string    `bson:"last_name" json:"lastName"`
	Secret       string    `bson:"secret" json:"-"`
	Verified     bool      `bson:"verified" json:"verified"`
	LastUsedStep int64     `bson:"last_used_step" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}
