package ledger

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"schikko/apperr"
	"schikko/models"
	"schikko/store"
)

const dateLayout = "2006-01-02"

// Policy is the set of runtime toggles kept in the settings store.
type Policy struct {
	RequireApproval     bool                 `json:"requireApproval"`
	EventStartDate      string               `json:"eventStartDate,omitempty"`
	EventDurationDays   int                  `json:"eventDurationDays"`
	AutoUnsetGraceHours int                  `json:"autoUnsetGraceHours"`
	AutoUnsetCleanup    models.CleanupPolicy `json:"autoUnsetCleanup"`
	CalendarURL         string               `json:"calendarUrl,omitempty"`
}

// DefaultPolicy applies to keys that were never set.
func DefaultPolicy() Policy {
	return Policy{RequireApproval: true, AutoUnsetCleanup: models.CleanupNone}
}

// AutoUnsetDeadline is the end of the configured event plus the grace delay,
// with the start date read in loc. ok is false when no event is configured.
func (p Policy) AutoUnsetDeadline(loc *time.Location) (deadline time.Time, ok bool) {
	if p.EventStartDate == "" {
		return time.Time{}, false
	}
	start, err := time.ParseInLocation(dateLayout, p.EventStartDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	end := start.AddDate(0, 0, p.EventDurationDays)
	return end.Add(time.Duration(p.AutoUnsetGraceHours) * time.Hour), true
}

// LoadPolicy reads all toggles through s. Malformed stored values fall back
// to their defaults.
func LoadPolicy(ctx context.Context, s store.SettingStore) (Policy, error) {
	settings, err := s.ListSettings(ctx)
	if err != nil {
		return Policy{}, err
	}
	p := DefaultPolicy()
	for _, kv := range settings {
		switch kv.Key {
		case models.SettingRequireApproval:
			if b, err := strconv.ParseBool(kv.Value); err == nil {
				p.RequireApproval = b
			}
		case models.SettingEventStartDate:
			if _, err := time.Parse(dateLayout, kv.Value); err == nil {
				p.EventStartDate = kv.Value
			}
		case models.SettingEventDurationDays:
			if n, err := strconv.Atoi(kv.Value); err == nil && n >= 0 {
				p.EventDurationDays = n
			}
		case models.SettingAutoUnsetGraceHours:
			if n, err := strconv.Atoi(kv.Value); err == nil && n >= 0 {
				p.AutoUnsetGraceHours = n
			}
		case models.SettingAutoUnsetCleanup:
			if c := models.CleanupPolicy(kv.Value); c.Valid() {
				p.AutoUnsetCleanup = c
			}
		case models.SettingCalendarURL:
			p.CalendarURL = kv.Value
		}
	}
	return p, nil
}

func (l *Ledger) Policy(ctx context.Context) (Policy, error) {
	p, err := LoadPolicy(ctx, l.store)
	if err != nil {
		return Policy{}, l.storeErr("", err)
	}
	return p, nil
}

// SetEventDate stores the event start (YYYY-MM-DD) and its length in days.
// An empty date clears the event.
func (l *Ledger) SetEventDate(ctx context.Context, date string, durationDays int) error {
	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return apperr.InvalidArgument("date must be YYYY-MM-DD")
		}
	}
	if durationDays < 0 || durationDays > 366 {
		return apperr.InvalidArgument("durationDays out of range")
	}
	return l.putSettings(ctx, map[string]string{
		models.SettingEventStartDate:    date,
		models.SettingEventDurationDays: strconv.Itoa(durationDays),
	})
}

func (l *Ledger) SetCalendarURL(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http" && u.Scheme != "webcal") || u.Host == "" {
			return apperr.InvalidArgument("invalid calendar url")
		}
	}
	return l.putSettings(ctx, map[string]string{models.SettingCalendarURL: raw})
}

func (l *Ledger) SetApprovalRequired(ctx context.Context, required bool) error {
	return l.putSettings(ctx, map[string]string{
		models.SettingRequireApproval: strconv.FormatBool(required),
	})
}

func (l *Ledger) SetAutoUnset(ctx context.Context, graceHours int, cleanup models.CleanupPolicy) error {
	if graceHours < 0 || graceHours > 24*31 {
		return apperr.InvalidArgument("graceHours out of range")
	}
	if !cleanup.Valid() {
		return apperr.InvalidArgument("unknown cleanup policy")
	}
	return l.putSettings(ctx, map[string]string{
		models.SettingAutoUnsetGraceHours: strconv.Itoa(graceHours),
		models.SettingAutoUnsetCleanup:    string(cleanup),
	})
}

func (l *Ledger) putSettings(ctx context.Context, kv map[string]string) error {
	err := l.store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		for k, v := range kv {
			if err := tx.PutSetting(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	return l.storeErr("", err)
}
