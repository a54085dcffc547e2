package models

import "time"

type StripeKind string

const (
	StripeNormal    StripeKind = "normal"
	StripeFulfilled StripeKind = "fulfilled"
)

func (k StripeKind) Valid() bool {
	return k == StripeNormal || k == StripeFulfilled
}

// StripeEvent is a single penalty mark. Events are never updated, only
// appended or deleted.
type StripeEvent struct {
	ID        string     `bson:"_id" gorm:"primaryKey" json:"id"`
	PersonID  string     `bson:"person_id" gorm:"index:idx_stripe_person_kind_ts,priority:1" json:"personId"`
	Kind      StripeKind `bson:"kind" gorm:"index:idx_stripe_person_kind_ts,priority:2" json:"kind"`
	Timestamp time.Time  `bson:"timestamp" gorm:"index:idx_stripe_person_kind_ts,priority:3" json:"timestamp"`
}

// StripeCounts is the per-kind tally for one person.
type StripeCounts struct {
	Normal    int64 `json:"normal"`
	Fulfilled int64 `json:"fulfilled"`
}

// Headroom is the number of outstanding, not yet fulfilled stripes.
func (c StripeCounts) Headroom() int64 {
	if c.Fulfilled >= c.Normal {
		return 0
	}
	return c.Normal - c.Fulfilled
}
