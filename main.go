// main.go

package main

import (
	"context"
	"os"

	"github.com/BitsNBytes25/VEIN-Dedicated-Server/cmd"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/logger"
	"github.com/BitsNBytes25/VEIN-Dedicated-Server/pkg/telemetry"
)

func main() {
	logger.Init()
	defer logger.Sync()

	if err := telemetry.Init("veinserver"); err != nil {
		logger.L().Warn("telemetry init failed; continuing without tracing")
	}

	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
