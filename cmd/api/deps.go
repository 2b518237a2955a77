package main

import (
	"log"

	"ontime/internal/domain/canvas"
	"ontime/internal/domain/reminder"
	"ontime/internal/infrastructure/canvasfeed"
	"ontime/internal/infrastructure/postgres"
	httphandlers "ontime/internal/interfaces/http"
	"ontime/internal/shared/auth"
	"ontime/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	AuthHandler     *httphandlers.AuthHandler
	ReminderHandler *httphandlers.ReminderHandler
	CanvasHandler   *httphandlers.CanvasHandler

	// Auth
	JWT *auth.JWT

	// Sync service and connection repository (for the scheduler job provider)
	SyncService    *canvas.SyncService
	ConnectionRepo *postgres.ConnectionRepository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	reminderRepo := postgres.NewReminderRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db)
	canvasStore := postgres.NewCanvasStore(db)

	// Initialize domain services
	reminderService := reminder.NewService(reminderRepo)
	feedClient := canvasfeed.NewClient(cfg.Canvas.FetchTimeout)
	syncService := canvas.NewSyncService(feedClient, canvasStore)

	// Initialize auth components
	jwt := auth.NewJWT(cfg.JWT.Secret)

	// Initialize handlers
	authHandler := httphandlers.NewAuthHandler(userRepo, jwt)
	reminderHandler := httphandlers.NewReminderHandler(reminderService)
	canvasHandler := httphandlers.NewCanvasHandler(connectionRepo, syncService)

	return &Dependencies{
		DB:              db,
		AuthHandler:     authHandler,
		ReminderHandler: reminderHandler,
		CanvasHandler:   canvasHandler,
		JWT:             jwt,
		SyncService:     syncService,
		ConnectionRepo:  connectionRepo,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
