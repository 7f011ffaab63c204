package repository

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewDBConnection opens the Postgres connection and migrates the schema.
// TranslateError maps driver unique-violation errors to gorm.ErrDuplicatedKey
// so the repositories can surface domain.ErrConflict.
func NewDBConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&User{}, &Offer{}, &Transaction{}, &Message{}); err != nil {
		return nil, err
	}
	return db, nil
}
