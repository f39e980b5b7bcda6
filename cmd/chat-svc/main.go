package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doubtdesk/internal/dbmysql"
	"doubtdesk/internal/di"
	"doubtdesk/internal/realtime"
)

func main() {
	log.Println("Starting Chat Service...")

	app, err := di.InitializeChatService()
	if err != nil {
		log.Fatalf("Failed to initialize chat service: %v", err)
	}

	if err := dbmysql.Migrate(app.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("✅ Database migration completed")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// With Redis configured, events published on any node reach this one too.
	if rb, ok := app.Broker.(*realtime.RedisBroker); ok {
		go rb.Listen(ctx, app.Hub)
	}

	srv := &http.Server{
		Addr:         app.Config.Server.Host + ":" + app.Config.Server.ChatServicePort,
		Handler:      app.Handler.Router(),
		ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Chat Service running on port %s", app.Config.Server.ChatServicePort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Chat Service...")
	stop()
	app.Hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	if err := app.Broker.Close(); err != nil {
		log.Printf("Broker close error: %v", err)
	}
	log.Println("Chat Service stopped")
}
