package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/docqa/internal/builder"
	"go.uber.org/zap"
)

func main() {
	env := flag.String("env", "local", "environment name, selects .env.<env>")
	file := flag.String("file", "", "document to open and summarize on start")
	watch := flag.Bool("watch", false, "re-summarize the open document when it changes on disk")
	mock := flag.Bool("mock", false, "answer locally instead of calling the summarizer service")
	flag.Parse()

	repl, logger, err := builder.BuildCLI(builder.CLIOptions{
		Environment: *env,
		Watch:       *watch,
		Mock:        *mock,
	})
	if err != nil {
		log.Fatal("Failed to build CLI:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repl.Run(ctx, *file); err != nil {
		logger.Error("cli stopped with error", zap.Error(err))
		stop()
		log.Fatal(err)
	}
}
