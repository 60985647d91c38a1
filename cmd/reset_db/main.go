package main

import (
	"context"
	"fmt"
	"lifeline/config"
	"lifeline/pkg/logger"
	"lifeline/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)

	if err != nil {
		panic(err)
	}
	defer pg.Close()

	// The geocode cache is kept; it is shared data, not client state.
	_, err = pg.GetPool().Exec(context.Background(), "TRUNCATE TABLE driver_tokens, booking_receipts, completion_records RESTART IDENTITY")
	if err != nil {
		log.Error(fmt.Sprintf("Failed to truncate tables: %v", err))
	} else {
		log.Info("Successfully truncated driver_tokens, booking_receipts and completion_records.")
	}
}
