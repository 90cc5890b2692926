package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// mysqlSchema creates the tables with the unique keys the handlers rely
// on to close the check-then-insert race.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(25) NOT NULL,
		email VARCHAR(320) NOT NULL,
		address VARCHAR(500) NOT NULL,
		UNIQUE KEY users_username_unique (username),
		KEY users_email_idx (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movies (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(100) NOT NULL,
		description VARCHAR(500) NOT NULL,
		genres JSON NOT NULL,
		cast_members JSON NOT NULL,
		director VARCHAR(50) NOT NULL,
		release_year INT NOT NULL,
		average_rating DOUBLE NOT NULL DEFAULT 0,
		poster_url VARCHAR(1024) NOT NULL,
		poster_asset_id VARCHAR(512) NOT NULL,
		video_url VARCHAR(1024) NOT NULL,
		video_asset_id VARCHAR(512) NOT NULL,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY movies_title_unique (title)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureMySQLSchema creates the users and movies tables if missing.
func EnsureMySQLSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range mysqlSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func mapMySQLError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %s", ErrDuplicate, me.Message)
	}
	return err
}
