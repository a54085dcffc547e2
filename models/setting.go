package models

// Setting keys for runtime policy toggles.
const (
	SettingRequireApproval     = "requireApproval"
	SettingEventStartDate      = "eventStartDate"
	SettingEventDurationDays   = "eventDurationDays"
	SettingAutoUnsetGraceHours = "autoUnsetGraceHours"
	SettingAutoUnsetCleanup    = "autoUnsetCleanup"
	SettingCalendarURL         = "calendarUrl"
)

// CleanupPolicy is what the auto-unset job deletes after ending a term.
type CleanupPolicy string

const (
	CleanupNone      CleanupPolicy = "none"
	CleanupFulfilled CleanupPolicy = "fulfilled"
	CleanupLedger    CleanupPolicy = "ledger"
	CleanupRules     CleanupPolicy = "rules"
	CleanupAll       CleanupPolicy = "all"
)

func (p CleanupPolicy) Valid() bool {
	switch p {
	case CleanupNone, CleanupFulfilled, CleanupLedger, CleanupRules, CleanupAll:
		return true
	}
	return false
}

type Setting struct {
	Key   string `bson:"_id" gorm:"primaryKey;column:setting_key" json:"key"`
	Value string `bson:"value" json:"value"`
}
