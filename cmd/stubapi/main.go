// Command stubapi serves in-memory auth, employee and task services on one
// port for local development of tasktracker.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Joseda-hg/tasktracker/internal/logging"
	"github.com/Joseda-hg/tasktracker/internal/stubapi"
	gfshutdown "github.com/gelmium/graceful-shutdown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	addrFlag := flag.String("addr", ":8081", "listen address")
	userFlag := flag.String("user", "", "seed a user with this name")
	passwordFlag := flag.String("password", "", "password for -user")
	secretFlag := flag.String("secret", os.Getenv("STUB_JWT_SECRET"), "token signing secret")
	levelFlag := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logger, err := logging.New(*levelFlag, "text", os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	server := stubapi.New(stubapi.Options{Secret: []byte(*secretFlag), Logger: logger})
	if *userFlag != "" {
		if err := server.AddUser(*userFlag, *passwordFlag); err != nil {
			log.Fatal(err)
		}
		logger.Info("seeded user", "username", *userFlag)
	}

	go func() {
		logger.Info("stub services listening", "addr", *addrFlag,
			"auth", "/auth", "employees", "/employees", "tasks", "/tasks")
		if err := server.Start(*addrFlag); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("stub server stopped", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, map[string]gfshutdown.Operation{
		"stubapi": func(ctx context.Context) error {
			logger.Info("graceful shutdown initiated")
			return server.Shutdown(ctx)
		},
	})

	exitCode := <-wait
	logger.Info("exited", "code", exitCode)
	os.Exit(exitCode)
}
