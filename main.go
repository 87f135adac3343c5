package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saberistic/tlsn/config"
	"github.com/saberistic/tlsn/gce"
	"github.com/saberistic/tlsn/gce/mock"
	"github.com/saberistic/tlsn/server"
)

func main() {
	cfg := config.ParseFlags()

	signingKey, err := config.LoadSigningKey(cfg.SigningKeyPath)
	if err != nil {
		log.Fatalln(err)
	}

	// TODO: replace with a real garbling-backend executor once one ships;
	// the mock computes the PRF directly and must never run in production.
	executorFactory := func() gce.Executor { return &mock.Executor{} }

	srv := server.New(cfg, signingKey, executorFactory)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Mux(),
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	log.Println("listening on", cfg.Addr)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln(err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("exiting...")

	go func() {
		<-sigCh
		log.Fatalln("terminating...")
	}()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
		defer os.Exit(1)
	}

	cancel()
}
