package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snakeclash/server/config"
	"snakeclash/server/directory"
	"snakeclash/server/server"
)

// Rooms that stop sending heartbeats for this long are dropped from the list
const roomStaleAfter = 30 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal("Config error: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()

	// Room list: served in-process, pushed to a remote directory, or both
	var publisher directory.Publisher
	if cfg.ServeDirectory {
		dir := directory.New(cfg.PublicAddr, cfg.Region)
		directory.Register(mux, dir)
		go dir.Run(ctx, cfg.PublishInterval, roomStaleAfter)
		publisher = dir
	}
	if cfg.DirectoryURL != "" {
		publisher = directory.NewHTTPPublisher(cfg.DirectoryURL, &http.Client{Timeout: 5 * time.Second})
	}

	dispatcher := server.NewDispatcher(server.Config{
		TickRate:         cfg.TickRate,
		MaxPlayers:       cfg.MaxPlayers,
		Bots:             cfg.Bots,
		MatchSeconds:     cfg.MatchSeconds,
		CountdownSeconds: cfg.CountdownSeconds,
		RematchDelay:     cfg.RematchDelay,
		PublishInterval:  cfg.PublishInterval,
		PublicAddr:       cfg.PublicAddr,
		Region:           cfg.Region,
		Seed:             cfg.Seed,
	}, publisher, log.Default())
	go dispatcher.Run(ctx)

	mux.HandleFunc("/ws", server.HandleWebSocket(dispatcher))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("Snake Clash Server Running"))
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on %s (tick rate %d, region %s)", cfg.ListenAddr, cfg.TickRate, cfg.Region)
	log.Printf("WebSocket endpoint: %s", cfg.PublicAddr)
	if cfg.ServeDirectory {
		log.Printf("Room directory: http://localhost%s/rooms", cfg.ListenAddr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server error: ", err)
	}
	log.Printf("Server stopped")
}
