package postgres

import "database/sql"

// EnsureSchema creates core tables if they do not exist. Deployments that run
// their own migrations can skip this; the statements are idempotent.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id      TEXT PRIMARY KEY,
            display_name TEXT,
            email        TEXT NOT NULL,
            created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS friend_requests (
            request_id   TEXT PRIMARY KEY,
            sender_id    TEXT NOT NULL,
            recipient_id TEXT NOT NULL,
            status       TEXT NOT NULL,
            message      TEXT,
            created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_recipient
            ON friend_requests (recipient_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_sender
            ON friend_requests (sender_id, status);`,
		`CREATE TABLE IF NOT EXISTS friendships (
            user_id      TEXT NOT NULL,
            friend_id    TEXT NOT NULL,
            friend_since TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (user_id, friend_id)
        );`,
		`CREATE TABLE IF NOT EXISTS playdates (
            playdate_id TEXT PRIMARY KEY,
            host_id     TEXT NOT NULL,
            title       TEXT NOT NULL,
            description TEXT,
            location    TEXT,
            start_time  TIMESTAMPTZ NOT NULL,
            end_time    TIMESTAMPTZ NOT NULL,
            created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS playdate_attendees (
            playdate_id TEXT NOT NULL,
            user_id     TEXT NOT NULL,
            PRIMARY KEY (playdate_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS playdate_invitations (
            invitation_id TEXT PRIMARY KEY,
            playdate_id   TEXT NOT NULL,
            sender_id     TEXT NOT NULL,
            recipient_id  TEXT NOT NULL,
            status        TEXT NOT NULL,
            message       TEXT,
            created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_recipient
            ON playdate_invitations (recipient_id, status);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
