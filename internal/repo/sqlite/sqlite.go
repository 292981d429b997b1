// Package sqlite stores users and films in a SQLite file through gorm. The
// films table uses the watchdate and user columns of the existing
// films.sqlite layout so that file opens as is.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:hash;not null"`
	Name         string
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type filmRow struct {
	ID        int64   `gorm:"primaryKey"`
	Title     string  `gorm:"size:160;not null"`
	Favorite  bool    `gorm:"not null"`
	WatchDate *string `gorm:"column:watchdate"` // YYYY-MM-DD or NULL
	Rating    int     `gorm:"not null"`
	UserID    int64   `gorm:"column:user;not null;index"`
}

func (filmRow) TableName() string { return "films" }

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for a throwaway database. The caller closes the returned
// *sql.DB; on error nothing is left open.
func Open(path string) (*gorm.DB, *sql.DB, error) {
	gdb, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})

	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// one connection keeps ":memory:" databases alive and serialises writers
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&userRow{}, &filmRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return gdb, sqlDB, nil
}
