// Package migrations применяет sql-миграции из каталога migrations/
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// SchemaVersion последняя миграция, на которую рассчитаны запросы repository:
// 000001 users и subscriptions, 000002 articles.
const SchemaVersion uint = 2

// ErrDirty предыдущий запуск упал посреди миграции, нужна ручная правка
// (migrate force) прежде чем блог сможет стартовать.
var ErrDirty = errors.New("schema is dirty")

// Run поднимает схему до последней версии. Повторный запуск ничего не меняет.
// Схема старше SchemaVersion (например, неполный каталог path) считается ошибкой.
func Run(db *sql.DB, path string) error {
	const op = "migrations.Run"
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://"+path,
		"pgx_v5",
		driver,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return fmt.Errorf("%s: version %d: %w", op, dirty.Version, ErrDirty)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	version, isDirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if isDirty {
		return fmt.Errorf("%s: version %d: %w", op, version, ErrDirty)
	}
	if version < SchemaVersion {
		return fmt.Errorf("%s: schema version %d, blog needs %d", op, version, SchemaVersion)
	}
	return nil
}
