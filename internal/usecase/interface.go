package usecase

import (
	"tonpurse/internal/entity"
)

type sessionRepository interface {
	Get(int64) (entity.Session, error)
	Save(int64, entity.Session) error
}

type idempotenceRepository interface {
	// MakeRecord return true if it was first time to call this method with same id
	MakeRecord(string) (bool, error)
}
