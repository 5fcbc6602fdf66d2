package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danthegoodman1/tabled/gologger"
	"github.com/danthegoodman1/tabled/http_server"
	"github.com/danthegoodman1/tabled/provisioner"
	"github.com/danthegoodman1/tabled/sqlite"
	"github.com/danthegoodman1/tabled/utils"
	"github.com/joho/godotenv"
)

var logger = gologger.NewLogger()

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file loaded")
	}
	logger.Debug().Msg("starting tabled api")

	if err := sqlite.ConnectToDB(); err != nil {
		logger.Error().Err(err).Msg("error connecting to sqlite")
		os.Exit(1)
	}

	prov := provisioner.New(sqlite.DB, provisioner.Config{
		AcquireTimeout: time.Millisecond * time.Duration(utils.GetEnvOrDefaultInt("DB_ACQUIRE_TIMEOUT_MS", 5000)),
	})

	httpServer := http_server.StartHTTPServer(prov)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	// Convert the time to seconds
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}

	if err := sqlite.DB.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing sqlite pool")
	}
}
