package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/allibot/rtsbench/internal/bench"
	"github.com/allibot/rtsbench/internal/models"
	"github.com/allibot/rtsbench/internal/store"
)

// Seeds the local archive with one synthetic finished run so the
// dashboard API can be exercised without a Java toolchain or a real
// benchmark.
func main() {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	st, err := store.Open(filepath.Join(dataDir, "rtsbench.db"))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	runID := uuid.NewString()
	run := &models.Run{
		ID:        runID,
		Name:      "seeded-run",
		Project:   "microrts-bot-eval",
		State:     models.RunStateRunning,
		StartedAt: time.Now().UTC().Add(-30 * time.Minute),
		Config: models.RunConfig{
			BotClass:       "alliBot.alli",
			Maps:           []string{"maps/16x16/basesWorkers16x16.xml"},
			Opponents:      []string{"random", "worker_rush"},
			Rounds:         1,
			MaxCycles:      5000,
			UTTVersion:     2,
			ConflictPolicy: 1,
		},
	}
	if err := st.CreateRun(run); err != nil {
		log.Fatalf("Failed to create run: %v", err)
	}

	seed := []struct {
		opponent string
		class    string
		botSide  int
		winner   int
		cycles   int
	}{
		{"random", "ai.RandomAI", 0, 0, 842},
		{"random", "ai.RandomAI", 1, 1, 1210},
		{"worker_rush", "ai.abstraction.WorkerRush", 0, 1, 2644},
		{"worker_rush", "ai.abstraction.WorkerRush", 1, -1, 5000},
	}

	var records []models.MatchRecord
	for i, m := range seed {
		rec := models.MatchRecord{
			Index:         i,
			Opponent:      m.opponent,
			OpponentClass: m.class,
			Map:           "basesWorkers16x16.xml",
			Round:         0,
			BotSide:       m.botSide,
			Winner:        m.winner,
			Cycles:        m.cycles,
			GameOver:      m.winner != -1,
			Result:        models.Classify(m.botSide, m.winner),
		}
		if err := st.AppendMatch(runID, rec); err != nil {
			log.Fatalf("Failed to append match %d: %v", i, err)
		}
		records = append(records, rec)
	}

	if err := st.FinishRun(runID, bench.Summarize(records), time.Now().UTC()); err != nil {
		log.Fatalf("Failed to finish run: %v", err)
	}

	fmt.Printf("Seeded run %s with %d matches\n", runID, len(records))
	fmt.Printf("Try: curl localhost:8080/api/v1/runs/%s/summary\n", runID)
}
