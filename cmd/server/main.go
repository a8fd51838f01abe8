package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/app"
	"github.com/rbtx/arena/internal/handlers"
)

func main() {
	service, err := app.NewService("config.toml")
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(service.Config.Database.MigrationsDir); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	go func() {
		if err := service.Coordinator.Run(context.Background()); err != nil {
			logger.Error.Fatalf("Sync coordinator stopped: %v", err)
		}
	}()

	scoreHandler := handlers.NewScoreHandler(service)
	drawHandler := handlers.NewDrawHandler(service)
	sessionHandler := handlers.NewSessionHandler(service)
	teamHandler := handlers.NewTeamHandler(service)
	competitionHandler := handlers.NewCompetitionHandler(service)

	http.HandleFunc("POST /api/v1/{competition}/draw", drawHandler.HandleGenerate)
	http.HandleFunc("PUT /api/v1/{competition}/draw", drawHandler.HandleGenerate)
	http.HandleFunc("GET /api/v1/{competition}/draw", drawHandler.HandleList)

	http.HandleFunc("POST /api/v1/{competition}/scores", scoreHandler.HandleSubmit)
	http.HandleFunc("PUT /api/v1/{competition}/scores", scoreHandler.HandleEdit)
	http.HandleFunc("DELETE /api/v1/{competition}/scores", scoreHandler.HandleDelete)
	http.HandleFunc("GET /api/v1/{competition}/scores", scoreHandler.HandleHistory)
	http.HandleFunc("GET /api/v1/{competition}/scoring", scoreHandler.HandleStandings)

	http.HandleFunc("GET /api/v1/{competition}/teams", teamHandler.HandleList)
	http.HandleFunc("POST /api/v1/{competition}/teams", teamHandler.HandleUpsert)
	http.HandleFunc("POST /api/v1/{competition}/phase", competitionHandler.HandleAdvancePhase)
	http.HandleFunc("GET /api/v1/teams/{team_id}/scores", scoreHandler.HandleTeamHistory)

	http.HandleFunc("POST /api/v1/{competition}/live/start", sessionHandler.HandleStart)
	http.HandleFunc("POST /api/v1/{competition}/live/end", sessionHandler.HandleEnd)
	http.HandleFunc("GET /api/v1/live", sessionHandler.HandleLive)

	http.HandleFunc("GET /api/v1/announcements", sessionHandler.HandleAnnouncements)
	http.HandleFunc("POST /api/v1/announcements", sessionHandler.HandleAnnounce)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting arena server on %s", service.Config.Server.Port)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Arena server failed: %v", err)
	}
}
