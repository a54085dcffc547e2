package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"schikko/apperr"
	"schikko/models"
)

const maxRuleLen = 2000

func cleanRule(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.InvalidArgument("rule text is required")
	}
	if len(text) > maxRuleLen {
		return "", apperr.InvalidArgument("rule text too long")
	}
	return text, nil
}

// AddRule appends a rule after the existing ones.
func (l *Ledger) AddRule(ctx context.Context, text string) (*models.Rule, error) {
	text, err := cleanRule(text)
	if err != nil {
		return nil, err
	}
	rules, err := l.store.ListRules(ctx)
	if err != nil {
		return nil, l.storeErr("", err)
	}
	pos := 0
	for _, r := range rules {
		if r.Position >= pos {
			pos = r.Position + 1
		}
	}
	now := l.now().UTC()
	r := &models.Rule{
		ID:        uuid.NewString(),
		Text:      text,
		Position:  pos,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.CreateRule(ctx, r); err != nil {
		return nil, l.storeErr("", err)
	}
	return r, nil
}

func (l *Ledger) UpdateRule(ctx context.Context, id, text string, position int) error {
	text, err := cleanRule(text)
	if err != nil {
		return err
	}
	if position < 0 {
		return apperr.InvalidArgument("position must not be negative")
	}
	return l.storeErr("rule not found", l.store.UpdateRule(ctx, id, text, position, l.now()))
}

func (l *Ledger) DeleteRule(ctx context.Context, id string) error {
	return l.storeErr("rule not found", l.store.DeleteRule(ctx, id))
}

func (l *Ledger) ListRules(ctx context.Context) ([]models.Rule, error) {
	rules, err := l.store.ListRules(ctx)
	if err != nil {
		return nil, l.storeErr("", err)
	}
	return rules, nil
}
