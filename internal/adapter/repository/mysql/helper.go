package mysql

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func isDuplicate(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }

func forUpdate() clause.Locking { return clause.Locking{Strength: "UPDATE"} }

// notFound maps gorm's not-found error onto a domain sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
