package models

import "time"

type DrinkRequestStatus string

const (
	DrinkPending  DrinkRequestStatus = "pending"
	DrinkApproved DrinkRequestStatus = "approved"
	DrinkRejected DrinkRequestStatus = "rejected"
)

// DrinkRequest asks for Amount fulfilled stripes on a person. Once it leaves
// pending it is never modified again.
type DrinkRequest struct {
	ID          string             `bson:"_id" gorm:"primaryKey" json:"id"`
	PersonID    string             `bson:"person_id" gorm:"index" json:"personId"`
	Amount      int                `bson:"amount" json:"amount"`
	Status      DrinkRequestStatus `bson:"status" gorm:"index" json:"status"`
	RequestedBy string             `bson:"requested_by" json:"requestedBy"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	ProcessedBy string             `bson:"processed_by,omitempty" json:"processedBy,omitempty"`
	ProcessedAt *time.Time         `bson:"processed_at,omitempty" json:"processedAt,omitempty"`
	Applied     int                `bson:"applied" json:"applied"`
}

// DrinkRequestView is a request joined with the display name of its person.
type DrinkRequestView struct {
	DrinkRequest
	PersonName string `json:"personName"`
}
