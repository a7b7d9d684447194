package postgres

import (
	"context"
)

// MigrationState reports the newest row of golang-migrate's
// schema_migrations table.
func (db *DB) MigrationState(ctx context.Context) (version int64, dirty bool, err error) {
	err = db.QueryRow(ctx, "migration_state",
		`SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &dirty)
	return version, dirty, err
}

// PoolStats summarises pool usage for health output.
func (db *DB) PoolStats() map[string]any {
	stats := db.pool.Stat()
	return map[string]any{
		"max_connections":      stats.MaxConns(),
		"total_connections":    stats.TotalConns(),
		"idle_connections":     stats.IdleConns(),
		"acquired_connections": stats.AcquiredConns(),
	}
}
