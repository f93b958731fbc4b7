package repository

import (
	"log"
	"time"

	"eartrainer/internal/database"
	"eartrainer/internal/models"
)

// MistakeRepository persists the short-term reinforcement queue.
type MistakeRepository struct {
	db database.DBTX
}

// NewMistakeRepository creates a new mistake queue repository.
func NewMistakeRepository(db database.DBTX) *MistakeRepository {
	return &MistakeRepository{db: db}
}

// LoadAll returns every queued mistake in enqueue order. Rows whose settings
// snapshot fails to decode are skipped rather than failing the whole load.
func (r *MistakeRepository) LoadAll() ([]models.QueuedMistake, error) {
	query := `
		SELECT id, seed, settings_json, min_distance, current_distance, questions_since, queued_at
		FROM queued_mistakes
		ORDER BY queued_at ASC, id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mistakes []models.QueuedMistake
	for rows.Next() {
		var m models.QueuedMistake
		var settingsJSON string

		err := rows.Scan(&m.ID, &m.Seed, &settingsJSON, &m.MinDistance, &m.CurrentDistance, &m.QuestionsSince, &m.QueuedAt)
		if err != nil {
			return nil, err
		}

		settings, err := models.UnmarshalSettings(settingsJSON)
		if err != nil {
			log.Printf("Skipping queued mistake %d: bad settings snapshot: %v", m.ID, err)
			continue
		}
		m.Settings = settings

		mistakes = append(mistakes, m)
	}

	return mistakes, rows.Err()
}

// Insert enqueues a new mistake and returns its id.
func (r *MistakeRepository) Insert(seed int64, settings models.Settings, minDistance, currentDistance int) (int64, error) {
	settingsJSON, err := models.MarshalSettings(settings)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO queued_mistakes (seed, settings_json, min_distance, current_distance, questions_since, queued_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`
	return r.db.ExecReturningID(query, seed, settingsJSON, minDistance, currentDistance, time.Now())
}

// Update writes back the distances and counter of one entry.
func (r *MistakeRepository) Update(id int64, minDistance, currentDistance, questionsSince int) error {
	query := `
		UPDATE queued_mistakes
		SET min_distance = ?, current_distance = ?, questions_since = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, minDistance, currentDistance, questionsSince, id)
	return err
}

// Delete removes one entry.
func (r *MistakeRepository) Delete(id int64) error {
	_, err := r.db.Exec("DELETE FROM queued_mistakes WHERE id = ?", id)
	return err
}

// DeleteAll empties the queue.
func (r *MistakeRepository) DeleteAll() error {
	_, err := r.db.Exec("DELETE FROM queued_mistakes")
	return err
}

// IncrementAllCounters bumps every entry's questions-since counter.
func (r *MistakeRepository) IncrementAllCounters() error {
	_, err := r.db.Exec("UPDATE queued_mistakes SET questions_since = questions_since + 1")
	return err
}

// IncrementCountersExcept bumps every counter except the entry currently
// being resolved.
func (r *MistakeRepository) IncrementCountersExcept(id int64) error {
	_, err := r.db.Exec("UPDATE queued_mistakes SET questions_since = questions_since + 1 WHERE id <> ?", id)
	return err
}
