package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fetchit-auth/client"
	"fetchit-auth/server"

	_ "github.com/mattn/go-sqlite3"
	"github.com/umakantv/go-utils/db/migrations"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

func main() {
	commandFlag := flag.String("command", "start", "Command to run: start|create-migration|link|open-url|status|refresh|unlink|messages")
	nameFlag := flag.String("name", "", "Migration name (alphanum+underscore only)")
	dirFlag := flag.String("dir", "./database/migrations", "Target directory for the new .sql file")
	urlFlag := flag.String("url", "", "Deep link to deliver (open-url)")
	maxFlag := flag.Int64("max", 10, "Maximum number of messages to list (messages)")
	flag.Parse()

	if *commandFlag == "" {
		fmt.Println("Usage: go run main.go --command <command-name> [... other options]")
		os.Exit(1)
	}

	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	switch *commandFlag {
	case "start":
		server.StartServer()
	case "create-migration":
		migrations.CreateMigration(nameFlag, dirFlag)
	case "link", "open-url", "status", "refresh", "unlink", "messages":
		if err := runClient(*commandFlag, *urlFlag, *maxFlag); err != nil {
			logger.Error("Command failed", zap.String("command", *commandFlag), zap.Error(err))
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown command %q\n", *commandFlag)
		os.Exit(1)
	}
}

func runClient(command, url string, max int64) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := client.Open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	switch command {
	case "link":
		return app.Link(ctx)
	case "open-url":
		return app.OpenURL(ctx, url)
	case "status":
		app.Status()
		return nil
	case "refresh":
		return app.Refresh(ctx)
	case "unlink":
		return app.Unlink(ctx)
	case "messages":
		return app.Messages(ctx, max)
	}
	return nil
}
