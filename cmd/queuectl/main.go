package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"eartrainer/internal/config"
	"eartrainer/internal/database"
	"eartrainer/internal/repository"
	"eartrainer/internal/scheduler"
	"eartrainer/internal/theory"
)

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	clearCmd := flag.NewFlagSet("clear", flag.ExitOnError)
	weakCmd := flag.NewFlagSet("weak", flag.ExitOnError)

	clearYes := clearCmd.Bool("yes", false, "Skip the confirmation prompt")
	weakLimit := weakCmd.Int("limit", 10, "Maximum entries to show")
	weakExact := weakCmd.Bool("exact", false, "Match the whole settings snapshot, not just key and scale")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DatabaseType, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	mistakeRepo := repository.NewMistakeRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		handleList(mistakeRepo, cfg)

	case "clear":
		clearCmd.Parse(os.Args[2:])
		handleClear(mistakeRepo, *clearYes)

	case "weak":
		weakCmd.Parse(os.Args[2:])
		handleWeak(historyRepo, cfg, *weakLimit, *weakExact)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleList(repo *repository.MistakeRepository, cfg *config.Config) {
	spaced := scheduler.NewSpacedMistakeScheduler(repo, cfg.InitialClearance, cfg.ClearanceStep)
	if err := spaced.Load(); err != nil {
		log.Fatalf("Failed to load mistake queue: %v", err)
	}

	queue := spaced.QueueSnapshot()
	if len(queue) == 0 {
		fmt.Println("Mistake queue is empty")
		return
	}

	fmt.Printf("%d queued mistake(s):\n", len(queue))
	for _, m := range queue {
		status := fmt.Sprintf("due in %d", m.RemainingUntilDue())
		if m.IsDue() {
			status = "due now"
		}
		fmt.Printf("  #%-4d seed=%-20d %s %s  spacing %d/%d  queued %s  (%s)\n",
			m.ID, m.Seed,
			theory.PitchClassName(m.Settings.KeyRoot), m.Settings.ScaleName,
			m.QuestionsSince, m.CurrentDistance,
			m.QueuedAt.Format(time.DateOnly), status)
	}

	if due, ok := spaced.QuestionsUntilNextDue(); ok {
		fmt.Printf("Next re-ask in %d question(s)\n", due)
	}
}

func handleClear(repo *repository.MistakeRepository, yes bool) {
	if !yes {
		fmt.Print("Clear the whole mistake queue? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted")
			return
		}
	}

	if err := repo.DeleteAll(); err != nil {
		log.Fatalf("Failed to clear queue: %v", err)
	}
	fmt.Println("Mistake queue cleared")
}

func handleWeak(repo *repository.HistoryRepository, cfg *config.Config, limit int, exact bool) {
	entries, err := repo.TopWeaknesses(cfg.Settings(), limit, exact)
	if err != nil {
		log.Fatalf("Failed to load weaknesses: %v", err)
	}

	if len(entries) == 0 {
		fmt.Println("No recorded weaknesses for the current key")
		return
	}

	fmt.Printf("Top weaknesses for %s %s:\n",
		theory.PitchClassName(cfg.KeyRoot), cfg.ScaleName)
	for _, e := range entries {
		fmt.Printf("  seed=%-20d asked %d time(s), failed %d\n",
			e.Seed, e.TimesAsked, e.FailureCount)
	}
}

func printUsage() {
	fmt.Println("Usage: queuectl <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list   Show the mistake queue and when each entry is due")
	fmt.Println("  clear  Empty the mistake queue (weakness history is kept)")
	fmt.Println("  weak   Show the most-failed seeds for the current key")
}
