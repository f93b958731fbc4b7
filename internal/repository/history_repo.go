package repository

import (
	"log"
	"time"

	"eartrainer/internal/database"
	"eartrainer/internal/models"
)

// HistoryRepository persists one row per completed question. The rows feed
// the long-run weakness aggregation; they are never mutated afterwards.
type HistoryRepository struct {
	db database.DBTX
}

// NewHistoryRepository creates a new question history repository.
func NewHistoryRepository(db database.DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordQuestion appends one completed question to the history.
func (r *HistoryRepository) RecordQuestion(seed int64, settings models.Settings, hadErrors bool) error {
	settingsJSON, err := models.MarshalSettings(settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO question_history (seed, settings_json, key_root, scale_name, had_errors, asked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, seed, settingsJSON, settings.KeyRoot, settings.ScaleName, hadErrors, time.Now())
	return err
}

// TopWeaknesses aggregates history rows into weakness entries, scoped to the
// active key and scale, most-failed first. With matchExact only rows whose
// whole settings snapshot equals the current one are considered. Seeds that
// were never failed are excluded.
func (r *HistoryRepository) TopWeaknesses(settings models.Settings, limit int, matchExact bool) ([]models.WeaknessEntry, error) {
	query := `
		SELECT seed, settings_json, COUNT(*), SUM(CASE WHEN had_errors THEN 1 ELSE 0 END) AS failures
		FROM question_history
		WHERE key_root = ? AND scale_name = ?
	`
	args := []interface{}{settings.KeyRoot, settings.ScaleName}

	if matchExact {
		settingsJSON, err := models.MarshalSettings(settings)
		if err != nil {
			return nil, err
		}
		query += " AND settings_json = ?"
		args = append(args, settingsJSON)
	}

	query += `
		GROUP BY seed, settings_json
		HAVING SUM(CASE WHEN had_errors THEN 1 ELSE 0 END) > 0
		ORDER BY failures DESC, seed ASC
		LIMIT ?
	`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WeaknessEntry
	for rows.Next() {
		var e models.WeaknessEntry
		var settingsJSON string

		err := rows.Scan(&e.Seed, &settingsJSON, &e.TimesAsked, &e.FailureCount)
		if err != nil {
			return nil, err
		}

		stored, err := models.UnmarshalSettings(settingsJSON)
		if err != nil {
			log.Printf("Skipping weakness for seed %d: bad settings snapshot: %v", e.Seed, err)
			continue
		}
		e.Settings = stored

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
