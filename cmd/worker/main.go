// cmd/worker/main.go
package main

import (
	"encoding/json"
	"log"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/pikarlabs/campaign-dispatch/internal/config"
	"github.com/pikarlabs/campaign-dispatch/internal/db"
	"github.com/pikarlabs/campaign-dispatch/internal/provider"
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

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	tokenRepo := &repository.TokenRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	listRepo := &repository.ListRepository{DB: db.DB}
	auditRepo := &repository.AuditRepository{DB: db.DB}

	dispatchService := &service.DispatchService{
		Campaigns: campaignRepo,
		Tokens: &service.TokenService{
			Tokens:   tokenRepo,
			Contacts: contactRepo,
			Audit:    auditRepo,
		},
		Resolver: &service.RecipientResolver{Lists: listRepo},
		Provider: provider.NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		Cfg:      cfg,
	}

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.DispatchTopic, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var job queue.DispatchJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			log.Println("📩 Dispatching reserved campaign ID:", job.CampaignID)

			if err := dispatchService.Dispatch(job.CampaignID); err != nil {
				log.Println("Dispatch failed:", err)
				// Retry logic: up to 3 attempts. A plain Nack requeues the
				// original delivery unchanged, so the retry count is carried
				// by republishing with an incremented header and acking the
				// original. A campaign that already moved past "queued"
				// no-ops on redelivery.
				retryCount := headerInt(d.Headers, "x-retry-count")
				if retryCount < 3 {
					err := ch.Publish("", q.Name, false, false, amqp.Publishing{
						ContentType: "application/json",
						Headers:     amqp.Table{"x-retry-count": int32(retryCount + 1)},
						Body:        d.Body,
					})
					if err != nil {
						log.Println("Failed to republish for retry:", err)
						d.Nack(false, true) // requeue as-is
						continue
					}
				} else {
					log.Println("⚠️ Giving up on campaign after retries:", job.CampaignID)
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for dispatch jobs...")
	<-forever
}

// headerInt reads an AMQP table entry as an int. Brokers hand integer headers
// back as int32 or int64 depending on how they were published.
func headerInt(h amqp.Table, key string) int {
	switch v := h[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
