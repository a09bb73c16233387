package main

import (
	"os"

	"github.com/razzbabu4/diagnostic-center-server/internal/app"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/router"
	"github.com/razzbabu4/diagnostic-center-server/pkg/logger"
)

func main() {
	if err := app.RunHTTP("catalog", router.Catalog); err != nil {
		logger.Error("Catalog service error", "error", err)
		os.Exit(1)
	}
}
