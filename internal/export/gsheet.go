package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/app"
	"github.com/rbtx/arena/internal/ident"
	"github.com/rbtx/arena/internal/store"
)

// GSheetExporter periodically pushes competition standings to Google
// Sheets, one spreadsheet per configured competition. The sheet is a
// publish-only mirror: nothing is ever read back into the system.
type GSheetExporter struct {
	config    *app.Config
	store     store.Store
	scheduler *gocron.Scheduler
}

func NewGSheetExporter(config *app.Config, st store.Store) (*GSheetExporter, error) {
	ctx := context.Background()
	scheduler := gocron.NewScheduler(time.UTC)

	exporter := &GSheetExporter{
		config:    config,
		store:     st,
		scheduler: scheduler,
	}

	for ref, cfg := range config.GSheet {
		competition := ident.Canonicalize(ref, nil)
		cfg := cfg

		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service for %s: %w", competition, err)
		}

		_, err = scheduler.Cron(cfg.Schedule).Do(func() {
			if err := exporter.Export(svc, competition, &cfg); err != nil {
				logger.Error.Printf("Export of %s failed: %v", competition, err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule export for %s: %w", competition, err)
		}
	}

	scheduler.StartAsync()
	return exporter, nil
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}

// Export writes the current standings table and a freshness timestamp.
func (e *GSheetExporter) Export(svc *sheets.Service, competition string, cfg *app.GSheetConfig) error {
	rows, err := e.store.FetchStandings(competition)
	if err != nil {
		return fmt.Errorf("failed to fetch standings: %w", err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, []interface{}{"Team", "Club", "Best", "Last phase", "Status", "Submissions"})
	for _, row := range rows {
		values = append(values, []interface{}{
			row.TeamName,
			row.Club,
			row.BestPoints,
			row.LastPhase,
			row.LastStatus,
			row.Submissions,
		})
	}

	writeRange := fmt.Sprintf("%s!%s", cfg.SheetName, cfg.TeamsRange)
	_, err = svc.Spreadsheets.Values.Update(cfg.SheetID, writeRange,
		&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to write standings: %w", err)
	}

	format := e.config.Display.TimestampFormat
	if format == "" {
		format = "2 January 15:04"
	}
	timestamp := fmt.Sprintf("UPD: %s", time.Now().Format(format))

	updateRange := fmt.Sprintf("%s!%s", cfg.SheetName, cfg.TimestampRange)
	_, err = svc.Spreadsheets.Values.Update(cfg.SheetID, updateRange,
		&sheets.ValueRange{Values: [][]interface{}{{timestamp}}}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to write timestamp: %w", err)
	}

	logger.Info.Printf("Exported %d standings rows for %s", len(rows), competition)
	return nil
}
