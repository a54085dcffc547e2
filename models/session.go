package models

import "time"

// Session grants administrator rights to one anonymous visitor identity until
// ExpiresAt. Sessions are never renewed.
type Session struct {
	ID        string    `bson:"_id" gorm:"primaryKey" json:"id"`
	Identity  string    `bson:"identity" gorm:"index" json:"identity"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	ExpiresAt time.Time `bson:"expires_at" gorm:"index" json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
