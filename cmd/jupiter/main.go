package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"jupiter/internal/api"
	"jupiter/internal/forecast"
	"jupiter/internal/ingest"
	"jupiter/internal/store"
)

var cli struct {
	DB       string  `help:"Path to SQLite database." default:"data/jupiter.db" env:"JUPITER_DB"`
	Port     string  `help:"HTTP server port." default:"8080" env:"PORT"`
	Lat      float64 `help:"Home location latitude." default:"40.71" env:"JUPITER_LAT"`
	Lon      float64 `help:"Home location longitude." default:"-74.01" env:"JUPITER_LON"`
	PowerURL string  `help:"NASA POWER API base URL." default:"https://power.larc.nasa.gov/api/temporal" env:"NASA_POWER_URL"`
	Seed     int64   `help:"Seed for the synthetic baseline generator." default:"42" env:"JUPITER_SEED"`

	NoPoll bool `help:"Disable background refresh and training (server only, for local dev)."`
	Train  bool `help:"Refresh history, train once, and exit."`

	ImportHost string `help:"FTP host for bulk archive imports." env:"ARCHIVE_FTP_HOST"`
	ImportPath string `help:"CSV path on the archive FTP host; import once and exit."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("jupiter"),
		kong.Description("Weather forecasting and risk probability service."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	gen := forecast.NewGenerator(cli.Seed)
	predictor := forecast.NewPredictor(st)
	trainer := forecast.NewTrainer(st, predictor)
	power := ingest.NewPowerClient(cli.PowerURL)
	scheduler := ingest.NewScheduler(st, power, trainer, cli.Lat, cli.Lon)
	server := api.NewServer(st, power, gen, predictor, trainer, cli.Port, cli.Lat, cli.Lon)

	if cli.ImportPath != "" {
		if cli.ImportHost == "" {
			log.Fatal("--import-path requires --import-host")
		}
		importer := ingest.NewArchiveImporter(cli.ImportHost)
		recs, err := importer.Import(cli.ImportPath, cli.Lat, cli.Lon)
		if err != nil {
			log.Fatalf("archive import: %v", err)
		}
		if cleared := ingest.Sanitize(recs); cleared > 0 {
			log.Printf("cleared %d implausible values", cleared)
		}
		if err := st.UpsertRecords(recs); err != nil {
			log.Fatalf("upsert imported records: %v", err)
		}
		log.Printf("imported %d records from %s", len(recs), cli.ImportPath)
		return
	}

	if cli.Train {
		ctx := context.Background()
		if err := scheduler.RefreshOnce(ctx); err != nil {
			log.Fatalf("refresh: %v", err)
		}
		if err := scheduler.TrainOnce(ctx); err != nil {
			log.Fatalf("train: %v", err)
		}
		return
	}

	// Pre-generate condition banners after each history refresh so page loads
	// never wait on image generation.
	if server.ImageGenerator() != nil {
		scheduler.SetAfterRefresh(server.PregenerateBanner)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cli.NoPoll {
		go scheduler.Run(ctx)
	} else {
		log.Println("polling disabled")
	}

	log.Printf("listening on :%s (home %.2f,%.2f)", cli.Port, cli.Lat, cli.Lon)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
	log.Println("shutdown complete")
}
