package main

import (
	"flag"
	"log"

	"github.com/futig/docqa/internal/builder"
)

func main() {
	env := flag.String("env", "local", "environment name, selects .env.<env>")
	flag.Parse()

	app, err := builder.Build(*env)
	if err != nil {
		log.Fatal("Failed to build application:", err)
	}

	if err := app.Run(); err != nil {
		log.Fatal("Application error:", err)
	}
}
