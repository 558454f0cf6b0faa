// The philoterm development server: a stand-in for the production chat
// backend that speaks the same HTTP contract, so the client can be
// developed and tested without it. Replies are canned quotes, not a
// language model.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var addr = flag.String("addr", "", "listen address (overrides PHILOTERM_ADDR)")

func setupLogging() (*os.File, error) {
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, err
	}

	logFile, err := os.OpenFile("logs/server.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return logFile, nil
}

func main() {
	flag.Parse()

	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer logFile.Close()

	cfg := loadConfig()
	if *addr != "" {
		cfg.Addr = *addr
	}

	store, err := NewStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: newRouter(&server{store: store, cfg: cfg}),
	}

	go func() {
		log.Printf("philoterm dev server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
