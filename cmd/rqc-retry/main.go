package main

import (
	"context"
	"log"
	"os"
	"time"

	"rqc-adapter-api/config"
	"rqc-adapter-api/services"

	"github.com/joho/godotenv"
)

// Drains the delayed-call ledger once. Meant to run from cron, once per
// day, e.g.:
//
//	15 3 * * * cd /srv/rqc-adapter && ./rqc-retry >> logs/rqc-retry.log 2>&1
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	config.InitDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	summary, err := services.NewDelayedCallService(config.DB).RunPending(ctx)
	if err != nil {
		log.Printf("retry run failed: %v", err)
		os.Exit(1)
	}

	log.Printf("retry run finished: %d processed, %d succeeded, %d deleted, %d kept, halted=%v",
		summary.Processed, summary.Succeeded, summary.Deleted, summary.Kept, summary.Halted)
}
