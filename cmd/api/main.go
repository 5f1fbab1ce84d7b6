package main

import (
	"context"
	"os"

	"github.com/yigit/knowledgemap/internal/pkg/logger"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
