package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ticketly-client/internal/adminfeed"
	"ticketly-client/internal/api"
	"ticketly-client/internal/auth"
	"ticketly-client/internal/booking"
	"ticketly-client/internal/config"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
	"ticketly-client/internal/realtime"
	"ticketly-client/internal/seatmap"
	"ticketly-client/internal/state"
	"ticketly-client/internal/store"
	"ticketly-client/internal/view"
)

// channelProvider binds the view's seat sessions to the shared realtime
// connection.
type channelProvider struct {
	cfg config.RealtimeConfig
	log *logger.Logger
}

func (p *channelProvider) Connect() (seatmap.SeatChannel, error) {
	return realtime.Connect(p.cfg, p.log)
}

func (p *channelProvider) Disconnect() {
	realtime.Disconnect()
}

func openStore(cfg *config.Config, log *logger.Logger) *store.Store {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal("STORE", fmt.Sprintf("Failed to open local store: %v", err))
	}

	runner := store.NewRunner(st, store.MigrateOptions{MigrationsDir: cfg.Store.MigrationsDir})
	if err := runner.MigrateUp(); err != nil {
		log.Fatal("STORE", fmt.Sprintf("Failed to migrate local store: %v", err))
	}

	log.Info("STORE", fmt.Sprintf("✅ Local store ready at %s", cfg.Store.Path))
	return st
}

// restoreSession seeds auth state from the persisted session, dropping
// tokens that have already expired.
func restoreSession(ctx context.Context, st *store.Store, authState *state.Auth, log *logger.Logger) {
	sess, err := st.LoadSession(ctx)
	if err == store.ErrNoSession {
		log.Info("AUTH", "No persisted session, starting signed out")
		return
	}
	if err != nil {
		log.Warn("AUTH", fmt.Sprintf("Failed to load persisted session: %v", err))
		return
	}

	claims, err := auth.ParseClaims(sess.Token)
	if err != nil {
		log.Warn("AUTH", fmt.Sprintf("Discarding unreadable session token: %v", err))
		_ = st.ClearSession(ctx)
		return
	}
	if claims.Expired(time.Now()) {
		log.Info("AUTH", "Persisted session expired, signing out")
		_ = st.ClearSession(ctx)
		return
	}

	authState.Restore(sess.User, sess.Token)
	log.Info("AUTH", fmt.Sprintf("Restored session for %s", sess.User.Email))
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Ticketly client")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	st := openStore(cfg, log)
	defer st.Close()

	authState := state.NewAuth()
	toasts := state.NewToasts()
	restoreSession(ctx, st, authState, log)

	// a 401 anywhere clears the session and forces the login entry point
	client := api.NewClient(cfg.API.BaseURL, authState, log,
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithMaxAttempts(cfg.API.MaxAttempts),
		api.WithOnUnauthorized(func() {
			if err := st.ClearSession(ctx); err != nil {
				log.Error("AUTH", fmt.Sprintf("Failed to clear session: %v", err))
			}
			authState.Logout(true)
		}),
	)

	authAPI := api.NewAuthAPI(client)
	eventsAPI := api.NewEventsAPI(client)
	bookingsAPI := api.NewBookingsAPI(client)
	flow := booking.NewFlow(bookingsAPI, booking.NewConfirmationEncoder(), log)

	server := view.NewServer(
		log,
		authState,
		toasts,
		st,
		authAPI,
		eventsAPI,
		bookingsAPI,
		flow,
		&channelProvider{cfg: cfg.Realtime, log: log},
		cfg.Seatmap.PollInterval,
	)

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()

	var feed *adminfeed.Consumer
	if cfg.Kafka.Enabled {
		feed = adminfeed.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic, cfg.Kafka.GroupID, log)
		go feed.Start(feedCtx, func(b models.Booking) {
			if !authState.IsAdmin() {
				return
			}
			if bookings, err := bookingsAPI.ListByEvent(feedCtx, b.EventID); err == nil {
				if err := st.ReplaceBookings(feedCtx, b.EventID, bookings); err != nil {
					log.Warn("KAFKA", fmt.Sprintf("Failed to refresh booking cache: %v", err))
				}
			}
			toasts.Notify("New Booking", fmt.Sprintf("Booking %d placed for event %d", b.ID, b.EventID))
		})
	}

	httpServer := &http.Server{
		Addr:         cfg.View.Addr,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.View.ReadTimeout,
		WriteTimeout: cfg.View.WriteTimeout,
		IdleTimeout:  cfg.View.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Ticketly client view running on %s", cfg.View.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Client started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	server.CloseSession()
	stopFeed()
	if feed != nil {
		if err := feed.Close(); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Error closing booking feed: %v", err))
		}
	}

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Ticketly client shutdown complete")
	}
}
