// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/pikarlabs/campaign-dispatch/internal/config"
	"github.com/pikarlabs/campaign-dispatch/internal/controller"
	"github.com/pikarlabs/campaign-dispatch/internal/db"
	"github.com/pikarlabs/campaign-dispatch/internal/handler"
	"github.com/pikarlabs/campaign-dispatch/internal/provider"
	"github.com/pikarlabs/campaign-dispatch/internal/queue"
	"github.com/pikarlabs/campaign-dispatch/internal/repository"
	"github.com/pikarlabs/campaign-dispatch/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	// Init DB
	db.Init()
	q := queue.NewInMemoryQueue()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	tokenRepo := &repository.TokenRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	listRepo := &repository.ListRepository{DB: db.DB}
	auditRepo := &repository.AuditRepository{DB: db.DB}

	tokenService := &service.TokenService{
		Tokens:   tokenRepo,
		Contacts: contactRepo,
		Audit:    auditRepo,
	}

	dispatchService := &service.DispatchService{
		Campaigns: campaignRepo,
		Tokens:    tokenService,
		Resolver:  &service.RecipientResolver{Lists: listRepo},
		Provider:  provider.NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		Cfg:       cfg,
	}

	// Send-now campaigns are dispatched in-process off the in-memory queue.
	queue.StartDispatchSubscriber(q, dispatchService)

	campaignService := &service.CampaignService{
		Campaigns: campaignRepo,
		Audit:     auditRepo,
		Queue:     q,
		Cfg:       cfg,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}

	unsubscribeHandler := &handler.UnsubscribeHandler{
		Tokens: tokenService,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)
	r.Post("/campaigns/{id}/send", campaignController.SendCampaign)

	// Recipient-facing opt-out link
	r.Get("/unsubscribe", unsubscribeHandler.Unsubscribe)

	log.Println("🚀 Server running on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}
