package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eartrainer/internal/config"
	"eartrainer/internal/database"
	"eartrainer/internal/engine"
	"eartrainer/internal/melody"
	"eartrainer/internal/midiio"
	"eartrainer/internal/models"
	"eartrainer/internal/repository"
	"eartrainer/internal/scheduler"
	"eartrainer/internal/scoring"
	"eartrainer/internal/theory"
)

func main() {
	cfg := config.Load()

	mode, err := scheduler.ParseMode(cfg.SchedulerMode)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Open(cfg.DatabaseType, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	mistakeRepo := repository.NewMistakeRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	coordinator := scheduler.NewCoordinator(mode,
		mistakeRepo, historyRepo, historyRepo,
		cfg.InitialClearance, cfg.ClearanceStep,
		cfg.WeaknessLimit, cfg.WeaknessMatchExact,
		time.Now().UnixNano(),
	)
	if err := coordinator.Load(); err != nil {
		log.Fatalf("Failed to load mistake queue: %v", err)
	}

	obs := coordinator.Observability()
	log.Printf("Scheduler mode %s, %d queued mistake(s)", mode, obs.PendingCount)

	session, err := sessionRepo.CreateSession(cfg.Settings())
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	player, err := midiio.NewPlayer(cfg.OutputPort)
	if err != nil {
		log.Fatalf("Failed to open MIDI output: %v", err)
	}
	defer player.Close()

	var hotkey *uint8
	if cfg.ReplayHotkey >= 0 && cfg.ReplayHotkey < 128 {
		h := uint8(cfg.ReplayHotkey)
		hotkey = &h
	}

	eng := engine.New(engine.Deps{
		Scheduler: coordinator,
		Generator: melody.NewGenerator(),
		Playback:  player,
		Scoring:   scoring.NewService(),
		Attempts:  attemptRepo,
		Sequences: sessionRepo,
		Settings:  cfg.Settings,
		SessionID: session.ID,
		Callbacks: engine.Callbacks{
			OnQuestion: func(seq *models.NoteSequence, source models.QuestionSource) {
				log.Printf("Question: %d notes, %s", seq.Len(), source)
			},
			OnFeedback: func(perfect bool) {
				if perfect {
					log.Println("Perfect!")
				} else {
					log.Println("Corrected - keep going")
				}
			},
			OnMistake: func(noteIndex int) {
				log.Printf("Wrong note at position %d, try again", noteIndex+1)
			},
		},
		ReplayHotkey: hotkey,
	})
	defer eng.Close()

	watcher, err := midiio.NewWatcher(cfg.InputPreferred,
		func(on bool, pitch uint8) {
			if on {
				eng.HandleNoteOn(pitch)
			} else {
				eng.HandleNoteOff(pitch)
			}
		},
		func() {
			log.Println("MIDI input lost; waiting for reconnection")
		},
	)
	if err != nil {
		log.Fatalf("Failed to initialize MIDI input: %v", err)
	}
	defer watcher.Close()

	settings := cfg.Settings()
	log.Printf("Practicing %s %s at %d BPM, %d notes per question",
		theory.PitchClassName(settings.KeyRoot), settings.ScaleName, settings.BPM, settings.NoteCount)

	if err := eng.PlayQuestion(nil); err != nil {
		log.Fatalf("Failed to start first question: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			watcher.Tick()
		case <-stop:
			log.Println("Shutting down")
			return
		}
	}
}
