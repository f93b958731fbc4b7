package repository

import (
	"time"

	"github.com/google/uuid"

	"eartrainer/internal/database"
	"eartrainer/internal/models"
)

// SessionRepository persists training sessions and their generated
// sequences.
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession records the start of a training session.
func (r *SessionRepository) CreateSession(settings models.Settings) (*models.TrainingSession, error) {
	settingsJSON, err := models.MarshalSettings(settings)
	if err != nil {
		return nil, err
	}

	session := &models.TrainingSession{
		ID:        uuid.New(),
		Settings:  settings,
		StartedAt: time.Now(),
	}

	query := `
		INSERT INTO training_sessions (id, settings_json, started_at)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.Exec(query, session.ID.String(), settingsJSON, session.StartedAt); err != nil {
		return nil, err
	}

	return session, nil
}

// InsertSequence records a generated question.
func (r *SessionRepository) InsertSequence(seq *models.NoteSequence) error {
	settingsJSON, err := models.MarshalSettings(seq.Settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO note_sequences (id, session_id, seed, settings_json, bpm, note_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		seq.ID.String(), seq.SessionID.String(), seq.Seed, settingsJSON,
		seq.BPM, len(seq.Notes), seq.CreatedAt,
	)
	return err
}
