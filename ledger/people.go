package ledger

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"schikko/apperr"
	"schikko/models"
)

const maxNameLen = 80

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.InvalidArgument("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", apperr.InvalidArgument("name too long")
	}
	return name, nil
}

func (l *Ledger) AddPerson(ctx context.Context, name string, role models.Role) (*models.Person, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.InvalidArgument("unknown role")
	}
	p := &models.Person{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      role,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.CreatePerson(ctx, p); err != nil {
		return nil, l.storeErr("", err)
	}
	return p, nil
}

func (l *Ledger) RenamePerson(ctx context.Context, id, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return l.storeErr("person not found", l.store.RenamePerson(ctx, id, name))
}

func (l *Ledger) SetRole(ctx context.Context, id string, role models.Role) error {
	if !role.Valid() {
		return apperr.InvalidArgument("unknown role")
	}
	return l.storeErr("person not found", l.store.SetPersonRole(ctx, id, role))
}

// DeletePerson removes the person with their stripes and drink requests.
func (l *Ledger) DeletePerson(ctx context.Context, id string) error {
	if id == "" {
		return apperr.InvalidArgument("personId is required")
	}
	return l.storeErr("person not found", l.store.DeletePerson(ctx, id))
}
