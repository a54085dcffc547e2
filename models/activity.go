package models

import "time"

// ActivityLog records one administrative action.
type ActivityLog struct {
	ID        string    `bson:"_id" gorm:"primaryKey" json:"id"`
	Action    string    `bson:"action" json:"action"`
	Actor     string    `bson:"actor" json:"actor"`
	Details   string    `bson:"details" json:"details"`
	CreatedAt time.Time `bson:"created_at" gorm:"index" json:"createdAt"`
}
