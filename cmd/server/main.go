package main

import (
	"log"

	"ListingAgent/internal/app"
	"ListingAgent/internal/observability"
	"ListingAgent/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	application := app.New()
	defer application.Repo.Close()

	observability.Start(application.Config.MetricsPort)
	server.Start(application.Repo, application.Config)
}
