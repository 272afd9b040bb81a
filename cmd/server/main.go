package main

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/medfield/fieldtrack-go/internal/api"
	"github.com/medfield/fieldtrack-go/internal/auth"
	"github.com/medfield/fieldtrack-go/internal/config"
	"github.com/medfield/fieldtrack-go/internal/database"
	"github.com/medfield/fieldtrack-go/internal/logging"
	"github.com/medfield/fieldtrack-go/internal/models"
	"github.com/medfield/fieldtrack-go/internal/pattern"
	"github.com/medfield/fieldtrack-go/internal/repository"
	"github.com/medfield/fieldtrack-go/internal/service"
	"github.com/medfield/fieldtrack-go/internal/session"
	"github.com/medfield/fieldtrack-go/internal/spatial"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fieldtrack",
		Short: "Fieldtrack - medical representative location and visit tracking",
		Long: `Backend for field-force tracking: location sessions, visit logging,
daily route blueprints and per-location visit patterns over SQLite storage.`,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildTracker wires the storage and service layers from config
func buildTracker(cfg *config.Config) (*service.TrackerService, *sql.DB, error) {
	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	sessions := session.NewManager(repository.NewSessionRepository(db), session.Options{
		Duration:   cfg.SessionDuration,
		Warning:    cfg.WarningThreshold,
		MaxEntries: cfg.MaxSessionEntries,
	})
	if err := sessions.Load(); err != nil {
		db.Close()
		return nil, nil, err
	}

	tracker := service.NewTrackerService(
		sessions,
		repository.NewVisitRepository(db),
		repository.NewBlueprintRepository(db),
		repository.NewPatternRepository(db),
		service.TrackerOptions{
			AvgTravelSpeedKmh:   cfg.AvgTravelSpeedKmh,
			DefaultVisitMinutes: cfg.DefaultVisitMinutes,
			ClusterPrecision:    cfg.ClusterPrecision,
		},
	)

	return tracker, db, nil
}

// serveCmd starts the REST API server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logging.Init("fieldtrack", cfg.Env)

			tracker, db, err := buildTracker(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			router := api.SetupRouter(cfg, tracker)

			log.Info().Str("port", cfg.Port).Str("db", cfg.DBPath).Msg("server starting")
			return router.Run(cfg.Port)
		},
	}
}

// seedCmd loads a demo day of visits for one representative
func seedCmd() *cobra.Command {
	var repID string
	var visitCount int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo day of visits for a representative",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logging.Init("fieldtrack-seed", cfg.Env)

			tracker, db, err := buildTracker(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			// Mumbai medical district as the demo area
			baseLat, baseLon := 19.0760, 72.8777
			types := []string{"hospital", "pharmacy", "clinic", "general"}
			outcomes := []string{"successful", "no_order", "follow_up", "other"}

			if err := tracker.CaptureLocation(repID, baseLat, baseLon, "Dadar West, Mumbai"); err != nil {
				return err
			}

			start := time.Now().Add(-6 * time.Hour)
			seeded := 0
			for i := 0; i < visitCount; i++ {
				visit := &models.VisitLocation{
					RepresentativeID: repID,
					LocationName:     fmt.Sprintf("Demo %s %d", types[i%len(types)], i+1),
					LocationType:     types[i%len(types)],
					Latitude:         baseLat + (rand.Float64()-0.5)*0.05,
					Longitude:        baseLon + (rand.Float64()-0.5)*0.05,
					VisitTime:        start.Add(time.Duration(i) * 40 * time.Minute).Format(time.RFC3339),
					VisitDurationMin: 20 + rand.Intn(30),
					VisitOutcome:     outcomes[rand.Intn(len(outcomes))],
				}

				recorded, err := tracker.RecordVisit(visit)
				if err != nil {
					return fmt.Errorf("seed visit %d: %w", i+1, err)
				}
				if !recorded {
					// Entry quota hit; re-capture to start a fresh window
					if err := tracker.CaptureLocation(repID, visit.Latitude, visit.Longitude, ""); err != nil {
						return err
					}
					if recorded, err = tracker.RecordVisit(visit); err != nil || !recorded {
						return fmt.Errorf("seed visit %d refused after re-capture", i+1)
					}
				}
				seeded++
			}

			fmt.Printf("Seeded %d visits for %s\n", seeded, repID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&repID, "rep", "r", "demo-rep", "Representative ID")
	cmd.Flags().IntVarP(&visitCount, "count", "c", 8, "Number of visits to seed")
	return cmd
}

// reportCmd prints a representative's route report to stdout
func reportCmd() *cobra.Command {
	var repID string
	var date string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a representative's daily route report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logging.Init("fieldtrack-report", cfg.Env)

			tracker, db, err := buildTracker(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			blueprint, err := tracker.GetRouteBlueprint(repID, date)
			if err != nil {
				return err
			}
			if blueprint == nil {
				fmt.Printf("No visits recorded for %s on %s\n", repID, date)
				return nil
			}

			fmt.Printf("Route report: %s  %s\n", blueprint.RepresentativeID, blueprint.Date)
			fmt.Println("==========================================")
			fmt.Printf("  Visits:          %d\n", blueprint.TotalVisits)
			fmt.Printf("  Distance:        %.2f km\n", blueprint.TotalDistanceKm)
			fmt.Printf("  Efficiency:      %.1f%%\n", blueprint.RouteEfficiency)
			fmt.Printf("  Travel time:     %d min\n", blueprint.TravelMinutes)
			fmt.Printf("  Visiting time:   %d min\n", blueprint.VisitingMinutes)
			fmt.Printf("  Coverage:        %v\n", blueprint.CoverageAreas)
			fmt.Println()

			for i, v := range blueprint.VisitLocations {
				fmt.Printf("  %2d. [%s] %s (%s) %d min, %s\n",
					i+1, v.VisitTime, v.LocationName, v.LocationType, v.VisitDurationMin, v.VisitOutcome)
				if i > 0 {
					prev := blueprint.VisitLocations[i-1]
					legKm := spatial.HaversineDistanceKm(prev.Latitude, prev.Longitude, v.Latitude, v.Longitude)
					fmt.Printf("      leg: %.2f km, bearing %.0f°\n",
						legKm, spatial.Bearing(prev.Latitude, prev.Longitude, v.Latitude, v.Longitude))
				}
			}

			analytics, err := tracker.GetLocationAnalytics(repID)
			if err != nil {
				return err
			}
			if len(analytics.TopLocations) > 0 {
				fmt.Println("\nTop locations:")
				for _, p := range analytics.TopLocations {
					fmt.Printf("  - %s\n", pattern.Describe(&models.LocationPattern{
						ClusterKey:       p.ClusterKey,
						LastLocationName: p.LocationName,
						VisitFrequency:   p.VisitFrequency,
						AvgVisitDurMin:   p.AvgVisitDurMin,
						SuccessRate:      p.SuccessRate,
					}))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&repID, "rep", "r", "demo-rep", "Representative ID")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date (YYYY-MM-DD), defaults to today")
	return cmd
}

// tokenCmd issues an API token for a subject
func tokenCmd() *cobra.Command {
	var sub string
	var hours int

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			token, err := auth.NewJWT([]byte(cfg.JWTSecret)).
				GenerateToken(sub, time.Duration(hours)*time.Hour)
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sub, "sub", "s", "bot", "Token subject")
	cmd.Flags().IntVarP(&hours, "hours", "H", 24, "Token lifetime in hours")
	return cmd
}
