package main

import (
	"context"
	"time"

	aclean "github.com/airenas/async-api/pkg/clean"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"

	"github.com/sorajate/craig/internal/pkg/audio"
	"github.com/sorajate/craig/internal/pkg/clean"
	"github.com/sorajate/craig/internal/pkg/download"
	"github.com/sorajate/craig/internal/pkg/gemini"
	"github.com/sorajate/craig/internal/pkg/postgres"
	"github.com/sorajate/craig/internal/pkg/store"
	"github.com/sorajate/craig/internal/pkg/telemetry"
	"github.com/sorajate/craig/internal/pkg/transcript"
	"github.com/sorajate/craig/internal/pkg/transcription"
	"github.com/sorajate/craig/internal/pkg/utils"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	data := &download.Data{}
	data.Port = cfg.GetInt("port")
	var err error

	ctx := context.Background()

	fStore, err := store.NewFileStore(cfg.GetString("rec.dir"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init recording store")
	}
	data.Store = fStore

	trStore, err := transcript.NewFileStore(cfg.GetString("transcripts.dir"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transcript store")
	}

	assembler, err := audio.NewAssembler(fStore, cfg.GetString("tmp.dir"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init audio assembler")
	}

	trSrv, err := transcription.NewService(&transcription.Data{
		Transcriber: newTranscriber(cfg),
		Assembler:   assembler,
		Transcripts: trStore,
	})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transcription service")
	}
	data.Transcripts = trSrv

	if dbURL := cfg.GetString("db.url"); dbURL != "" {
		dbConfig, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init db pool")
		}
		addDBLog(dbConfig)

		dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init db pool")
		}
		defer dbPool.Close()

		data.Usage, err = postgres.NewUsageCounter(dbPool)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init usage counter")
		}
	} else {
		goapp.Log.Warn().Msg("no db.url provided - usage counters disabled")
	}

	reporter := telemetry.NewReporter()
	defer reporter.Close()
	data.Reporter = reporter

	ctxTimer, cancelFunc := context.WithCancel(ctx)
	doneCh := startJanitor(ctxTimer, cfg)

	go utils.RunPerfEndpoint()

	err = download.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

// startJanitor runs the stale temp audio sweep timer when configured
func startJanitor(ctx context.Context, cfg *viper.Viper) <-chan struct{} {
	runEvery := cfg.GetDuration("janitor.runEvery")
	if runEvery <= 0 {
		goapp.Log.Info().Msg("no janitor.runEvery provided - temp file janitor disabled")
		res := make(chan struct{})
		close(res)
		return res
	}
	expire := cfg.GetDuration("janitor.expire")
	if expire <= 0 {
		expire = time.Hour
	}
	tmpDir := cfg.GetString("tmp.dir")
	janitor, err := clean.NewJanitor(tmpDir, expire)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init janitor")
	}

	cleaner := &aclean.CleanerGroup{}
	cleaner.Jobs = append(cleaner.Jobs, janitor)

	tData := aclean.TimerData{}
	tData.IDsProvider = janitor
	tData.Cleaner = cleaner
	tData.RunEvery = runEvery

	goapp.Log.Info().Dur("duration", expire).Msg("expire")

	doneCh, err := aclean.StartCleanTimer(ctx, &tData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start timer")
	}
	return doneCh
}

// newTranscriber builds the external client once at startup,
// a missing key disables transcription but keeps the rest of the service up
func newTranscriber(cfg *viper.Viper) transcription.Transcriber {
	key := cfg.GetString("gemini.key")
	if key == "" {
		goapp.Log.Warn().Msg("no gemini.key provided - transcription disabled")
		return nil
	}
	url := cfg.GetString("gemini.url")
	if url == "" {
		url = "https://generativelanguage.googleapis.com"
	}
	cl, err := gemini.NewClient(url, key, cfg.GetString("gemini.model"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gemini client")
	}
	return cl
}

func addDBLog(dbConfig *pgxpool.Config) {
	logFunc := goapp.Log.Info().Msg
	dbConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		logFunc("before connect")
		return nil
	}
	dbConfig.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		logFunc("after connect")
		return nil
	}
	dbConfig.BeforeAcquire = func(ctx context.Context, c *pgx.Conn) bool {
		logFunc("before acquire")
		return true
	}
	dbConfig.AfterRelease = func(c *pgx.Conn) bool {
		logFunc("after release")
		return true
	}
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
    ______ ____   ___     ____ ______
   / ____// __ \ /   |   /  _// ____/
  / /    / /_/ // /| |   / / / / __
 / /___ / _, _// ___ | _/ / / /_/ /
 \____//_/ |_|/_/  |_|/___/ \____/

        __                      __                __
   ____/ /___  _      ______  / /___  ____ _____/ /
  / __  / __ \| | /| / / __ \/ / __ \/ __ ` + "`" + `/ __  /
 / /_/ / /_/ /| |/ |/ / / / / / /_/ / /_/ / /_/ /
 \__,_/\____/ |__/|__/_/ /_/_/\____/\__,_/\__,_/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/sorajate/craig"))
}
