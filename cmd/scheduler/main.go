// cmd/scheduler/main.go
package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/pikarlabs/campaign-dispatch/internal/config"
	"github.com/pikarlabs/campaign-dispatch/internal/db"
	"github.com/pikarlabs/campaign-dispatch/internal/queue"
	"github.com/pikarlabs/campaign-dispatch/internal/repository"
	"github.com/pikarlabs/campaign-dispatch/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()
	db.Init()

	publisher, err := queue.NewAMQPPublisher(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer publisher.Close()

	scheduler := &service.SchedulerService{
		Campaigns:    &repository.CampaignRepository{DB: db.DB},
		Queue:        publisher,
		ReserveLimit: cfg.ReserveLimit,
		StaleAfter:   cfg.StaleSendingAfter,
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.ScanSpec, func() {
		now := time.Now()
		if _, err := scheduler.RunScan(now); err != nil {
			log.Println("⚠️ reservation scan failed:", err)
		}
		if err := scheduler.SweepStale(now); err != nil {
			log.Println("⚠️ stale-sending sweep failed:", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid scan spec %q: %v", cfg.ScanSpec, err)
	}

	log.Println("⏰ Scheduler running with spec:", cfg.ScanSpec)
	c.Run()
}
