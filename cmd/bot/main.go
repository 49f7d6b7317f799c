package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ad/go-telegram-onboarding/internal/config"
	"github.com/ad/go-telegram-onboarding/internal/db"
	"github.com/ad/go-telegram-onboarding/internal/handlers"
	"github.com/ad/go-telegram-onboarding/internal/models"
	"github.com/ad/go-telegram-onboarding/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	_ "github.com/joho/godotenv/autoload"
	_ "modernc.org/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	sqlDB, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.InitSchema(sqlDB); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	dbQueue := db.NewDBQueue(sqlDB)
	defer dbQueue.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	b, err := bot.New(cfg.BotToken, bot.WithHTTPClient(cfg.PollTimeout, httpClient))
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	handler, persister := buildHandler(cfg, dbQueue, b)
	defer persister.Close()

	b.RegisterHandlerMatchFunc(func(update *tgmodels.Update) bool {
		return true
	}, handler.HandleUpdate, logMiddleware)

	users, err := db.NewUserRepository(dbQueue).Count()
	if err != nil {
		log.Printf("Failed to count users: %v", err)
	}
	log.Printf("Bot started. Admin ID: %d, DB: %s, users: %d", cfg.AdminID, cfg.DBPath, users)

	b.Start(ctx)
	log.Printf("Bot stopped, flushing progress")
}

// buildHandler wires repositories, progress sessions and screens. The
// returned persister must be closed after the bot stops so pending progress
// reaches the database.
func buildHandler(cfg config.Config, dbQueue *db.DBQueue, sender services.Sender) (*handlers.BotHandler, *services.ProgressPersister) {
	userRepo := db.NewUserRepository(dbQueue)
	progressRepo := db.NewProgressRepository(dbQueue)
	chatStateRepo := db.NewChatStateRepository(dbQueue)
	settingsRepo := db.NewSettingsRepository(dbQueue)
	if err := settingsRepo.Override(models.Settings{
		WelcomeMessage: cfg.WelcomeMessage,
		FinalMessage:   cfg.FinalMessage,
	}); err != nil {
		log.Printf("[SETTINGS] Failed to apply configured texts: %v", err)
	}

	persister := services.NewProgressPersister(progressRepo)
	sessions := services.NewProgressSessions(progressRepo, persister)

	errorManager := services.NewErrorManager(sender, cfg.AdminID)
	msgManager := services.NewMessageManager(sender, errorManager)

	handler := handlers.NewBotHandler(
		errorManager,
		msgManager,
		sessions,
		userRepo,
		chatStateRepo,
		settingsRepo,
		cfg.OTPResendAfter,
	)
	return handler, persister
}

func formatUser(u tgmodels.User) string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if u.Username != "" {
		name += " @" + u.Username
	}
	return fmt.Sprintf("%s [%d]", name, u.ID)
}

func logMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
		start := time.Now()
		if update.Message != nil && update.Message.From != nil {
			log.Printf("[MSG] from=%s text=%q", formatUser(*update.Message.From), update.Message.Text)
		}
		if update.CallbackQuery != nil {
			log.Printf("[CALLBACK] from=%s data=%q", formatUser(update.CallbackQuery.From), update.CallbackQuery.Data)
		}
		next(ctx, b, update)
		log.Printf("[MSG] handled update %d in %s", update.ID, time.Since(start))
	}
}
