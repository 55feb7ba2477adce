// Command export_rounds writes archived rounds as CSV, newest first.
//
//	export_rounds [-out rounds.csv] [-limit 100] [-winner 0x...]
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/config"
	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/storage"
	"github.com/ArowuTest/fastest-finger-pot/internal/utils"
)

const pageSize = 100

func main() {
	out := flag.String("out", "", "output file (default stdout)")
	limit := flag.Int("limit", 0, "maximum rounds to export, 0 for all")
	winner := flag.String("winner", "", "only rounds won by this participant")
	flag.Parse()

	// Load configuration; only the storage and game sections are used
	cfg, err := config.Read()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Driver == "memory" || cfg.Storage.Driver == "" {
		log.Fatal("storage.driver is memory; nothing to export")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close(context.Background())

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	var fetch func(page int) ([]*models.RoundResult, error)
	if *winner != "" {
		id, err := utils.NormalizeParticipantID(*winner, cfg.Game.RequireAddressIDs)
		if err != nil {
			log.Fatalf("Invalid winner %q: %v", *winner, err)
		}
		fetch = func(page int) ([]*models.RoundResult, error) {
			return store.Rounds.FindByWinner(ctx, models.ParticipantID(id), page, pageSize)
		}
	} else {
		fetch = func(page int) ([]*models.RoundResult, error) {
			return store.Rounds.FindRecent(ctx, page, pageSize)
		}
	}

	n, err := export(w, cfg.Game.TokenDecimals, fetch, *limit)
	if err != nil {
		log.Fatalf("Export failed after %d rounds: %v", n, err)
	}
	log.Printf("Exported %d rounds", n)
}

// export pages through fetch until it runs dry or limit rounds are written
func export(w io.Writer, decimals int32, fetch func(page int) ([]*models.RoundResult, error), limit int) (int, error) {
	exporter := utils.NewRoundCSVExporter(w, decimals)
	if err := exporter.WriteHeader(); err != nil {
		return 0, err
	}
	written := 0
	for page := 1; ; page++ {
		rounds, err := fetch(page)
		if err != nil {
			return written, err
		}
		for _, r := range rounds {
			if limit > 0 && written >= limit {
				return exporter.Flush()
			}
			if err := exporter.Write(r); err != nil {
				return written, err
			}
			written++
		}
		if len(rounds) < pageSize {
			return exporter.Flush()
		}
	}
}
