package models

import "time"

// ThrottleBucket holds the attempt timestamps for one key (document stores).
type ThrottleBucket struct {
	Key      string      `bson:"_id"`
	Attempts []time.Time `bson:"attempts"`
	LastAt   time.Time   `bson:"last_at"`
}

// ThrottleAttempt is one recorded attempt (relational stores).
type ThrottleAttempt struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	BucketKey string    `gorm:"index:idx_throttle_key_at,priority:1"`
	At        time.Time `gorm:"index:idx_throttle_key_at,priority:2"`
}
