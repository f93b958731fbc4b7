package repository

import (
	"github.com/google/uuid"

	"eartrainer/internal/database"
	"eartrainer/internal/models"
)

// AttemptRepository persists one row per physical key-press.
type AttemptRepository struct {
	db database.DBTX
}

// NewAttemptRepository creates a new attempt repository.
func NewAttemptRepository(db database.DBTX) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Insert records one key-press descriptor against its sequence.
func (r *AttemptRepository) Insert(sequenceID uuid.UUID, d models.AttemptDescriptor) error {
	query := `
		INSERT INTO attempts (sequence_id, note_index, expected_pitch, guessed_pitch,
		                      expected_degree, guessed_degree, expected_interval, guessed_interval,
		                      correct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		sequenceID.String(), d.NoteIndex, d.ExpectedPitch, d.GuessedPitch,
		d.ExpectedDegree, d.GuessedDegree, d.ExpectedInterval, d.GuessedInterval,
		d.Correct, d.CreatedAt,
	)
	return err
}

// ListBySequence returns the descriptors recorded for one sequence in press
// order.
func (r *AttemptRepository) ListBySequence(sequenceID uuid.UUID) ([]models.AttemptDescriptor, error) {
	query := `
		SELECT note_index, expected_pitch, guessed_pitch,
		       expected_degree, guessed_degree, expected_interval, guessed_interval,
		       correct, created_at
		FROM attempts
		WHERE sequence_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(query, sequenceID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.AttemptDescriptor
	for rows.Next() {
		var d models.AttemptDescriptor
		err := rows.Scan(&d.NoteIndex, &d.ExpectedPitch, &d.GuessedPitch,
			&d.ExpectedDegree, &d.GuessedDegree, &d.ExpectedInterval, &d.GuessedInterval,
			&d.Correct, &d.CreatedAt)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, d)
	}

	return attempts, rows.Err()
}
