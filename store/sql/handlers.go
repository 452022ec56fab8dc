package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func usernameHandlers() repository.ModelHandlers[*usernameRecord] {
	return repository.ModelHandlers[*usernameRecord]{
		NewRecord: func() *usernameRecord {
			return &usernameRecord{}
		},
		GetID: func(record *usernameRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *usernameRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "username"
		},
		GetIdentifierValue: func(record *usernameRecord) string {
			if record == nil {
				return ""
			}
			return record.Username
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
