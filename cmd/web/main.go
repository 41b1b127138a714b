package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"retailpulse/internal/app"
	"retailpulse/internal/middleware"
)

func main() {
	hashKey := flag.String("hash-api-key", "", "print the bcrypt hash of `key` for RETAILPULSE_SECURITY_API_KEY_HASH and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := middleware.HashAPIKey(*hashKey)
		if err != nil {
			slog.Error("failed to hash api key", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
