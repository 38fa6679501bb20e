package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/admincli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := admincli.Run(ctx, os.Args[1:], os.LookupEnv, os.Stdout); err != nil {
		log.Fatalf("leasekeeper-admin: %v", err)
	}
}
