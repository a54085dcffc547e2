package models

import "time"

type Rule struct {
	ID        string    `bson:"_id" gorm:"primaryKey" json:"id"`
	Text      string    `bson:"text" json:"text"`
	Position  int       `bson:"position" json:"position"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
