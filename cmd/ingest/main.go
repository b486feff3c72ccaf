package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"notice-backend/cmd"
	"notice-backend/internal/config"
	"notice-backend/internal/database"
	"notice-backend/internal/ingest"
	"notice-backend/pkg/api"
)

// Loads a nightly predictions JSON file and ingests it. Intended to run
// as the final step of the nightly scrape/classify pipeline.
func main() {
	cmd.LoadEnvFile()

	path := flag.Arg(0)
	if path == "" {
		log.Fatalf("usage: ingest [-env FILE] NIGHTLY_FILE.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("error reading nightly file '%s': %v", path, err)
	}

	var file api.NightlyFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Fatalf("error parsing nightly file '%s': %v", path, err)
	}

	db, err := database.NewDatabase(config.ResolveDatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}()

	run, err := ingest.NewIngestor(db).InsertNightlyFile(context.Background(), file)
	if err != nil {
		if run != nil {
			log.Fatalf("nightly ingestion failed (run %s): %v", run.Id, err)
		}
		log.Fatalf("nightly ingestion failed: %v", err)
	}

	log.Printf("ingested %d notices with %d attachments (run %s)", run.NoticeCount, run.AttachmentCount, run.Id)
}
