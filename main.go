package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/cmd"

	log "github.com/sirupsen/logrus"
)

const usage = "usage: raffle [run|oracle|deploy|reset [caller]|deposit <address> <amount>|migrate up|down [steps]|status]"

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	var err error
	switch command {
	case "run":
		err = cmd.Run(ctx)
	case "oracle":
		err = cmd.Oracle(ctx)
	case "deploy":
		err = cmd.Deploy(ctx)
	case "reset":
		caller := ""
		if len(os.Args) > 2 {
			caller = os.Args[2]
		}
		err = cmd.Reset(ctx, caller)
	case "deposit":
		if len(os.Args) < 4 {
			err = fmt.Errorf("deposit needs an address and an amount\n%s", usage)
			break
		}
		err = cmd.Deposit(ctx, os.Args[2], os.Args[3])
	case "migrate":
		err = cmd.Migrate(os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	if err != nil {
		log.WithError(err).Fatal("Raffle command failed")
	}
}
