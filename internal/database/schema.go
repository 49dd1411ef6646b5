package database

import (
	"context"
	"database/sql"
)

// The scope columns are NULLable on purpose: a rule's level decides which of
// them are set, and repositories match them with the NULL-safe <=> operator.
// That also means MySQL cannot enforce scope uniqueness with a UNIQUE index
// (NULLs never collide), so the one-active-rule-per-scope invariant is held
// by the repositories' locking upserts instead.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS markup_rules (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		level         VARCHAR(16)     NOT NULL,
		sport_type    VARCHAR(64)     NOT NULL,
		tournament_id BIGINT UNSIGNED NULL,
		team_id       BIGINT UNSIGNED NULL,
		event_id      BIGINT UNSIGNED NULL,
		ticket_id     BIGINT UNSIGNED NULL,
		markup_type   VARCHAR(16)     NOT NULL,
		markup_amount DECIMAL(12,4)   NOT NULL,
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		created_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_markup_scope (sport_type, level, tournament_id, team_id, event_id, ticket_id),
		KEY idx_markup_ticket (ticket_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS hospitality_assignments (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		level          VARCHAR(16)     NOT NULL,
		sport_type     VARCHAR(64)     NOT NULL,
		tournament_id  BIGINT UNSIGNED NULL,
		team_id        BIGINT UNSIGNED NULL,
		event_id       BIGINT UNSIGNED NULL,
		ticket_id      BIGINT UNSIGNED NULL,
		hospitality_id BIGINT UNSIGNED NOT NULL,
		is_active      TINYINT(1)      NOT NULL DEFAULT 1,
		created_at     TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_assignment_scope (sport_type, level, tournament_id, team_id, event_id, ticket_id),
		KEY idx_assignment_hospitality (hospitality_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS hospitalities (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name        VARCHAR(128)    NOT NULL,
		description TEXT            NULL,
		sort_order  INT UNSIGNED    NOT NULL DEFAULT 0,
		is_active   TINYINT(1)      NOT NULL DEFAULT 1,
		created_at  TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_hospitality_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS legacy_ticket_markups (
		ticket_id     BIGINT UNSIGNED NOT NULL,
		markup_type   VARCHAR(16)     NOT NULL,
		markup_amount DECIMAL(12,4)   NOT NULL,
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		created_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (ticket_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS legacy_ticket_hospitalities (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		ticket_id      BIGINT UNSIGNED NOT NULL,
		hospitality_id BIGINT UNSIGNED NOT NULL,
		is_active      TINYINT(1)      NOT NULL DEFAULT 1,
		created_at     TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_legacy_hosp_ticket (ticket_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the pricing tables when they do not exist yet. It
// runs at startup; statements are idempotent so replicas can race on boot.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
