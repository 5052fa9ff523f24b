package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/dkenzhe/videosub/internal/artifacts"
	"github.com/dkenzhe/videosub/internal/audio"
	"github.com/dkenzhe/videosub/internal/chunking"
	"github.com/dkenzhe/videosub/internal/config"
	"github.com/dkenzhe/videosub/internal/httpapi"
	"github.com/dkenzhe/videosub/internal/jobs"
	"github.com/dkenzhe/videosub/internal/library"
	"github.com/dkenzhe/videosub/internal/persistence"
	"github.com/dkenzhe/videosub/internal/pipeline"
	"github.com/dkenzhe/videosub/internal/status"
	"github.com/dkenzhe/videosub/internal/transcribe"
	"github.com/dkenzhe/videosub/pkg/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))

	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		log.Fatal("Failed to create data directory: %v", err)
	}

	store, err := persistence.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		log.Fatal("Failed to open library database: %v", err)
	}
	defer store.Close()

	capability, err := transcribe.NewHTTPCapability(transcribe.HTTPCapabilityConfig{
		BaseURL:  cfg.ASR.APIURL,
		Language: cfg.ASR.Language,
		Timeout:  cfg.ASRTimeout(),
	})
	if err != nil {
		log.Fatal("Failed to create speech capability: %v", err)
	}

	orchestrator := transcribe.NewOrchestrator(capability,
		transcribe.WithWindowLength(cfg.ASR.WindowSeconds),
		transcribe.WithWindowErrorHandler(pipeline.WindowErrorHandler()),
	)
	chunker := chunking.NewChunker(
		chunking.WithMaxDuration(cfg.Chunk.MaxDuration),
		chunking.WithMaxSentences(cfg.Chunk.MaxSentences),
	)
	extractor := audio.NewExtractor(audio.WithFFmpegCmd(cfg.System.FFmpegPath))
	layout := artifacts.NewLayout(cfg.Server.OutputDir)
	tracker := status.NewTracker()

	pipe := pipeline.New(extractor, orchestrator, chunker, layout, tracker,
		pipeline.WithLibrary(store))
	runner := jobs.NewRunner(pipe.Executor())

	cronEngine := cron.New()
	sweeper := library.NewSweeper(store, layout, cfg.System.SweepCronExpr, cronEngine)
	if err := sweeper.Schedule(context.Background()); err != nil {
		log.Fatal("Failed to schedule library sweep: %v", err)
	}
	cronEngine.Start()
	defer cronEngine.Stop()

	server := httpapi.NewServer(runner, tracker, layout, cfg.Server.UploadDir,
		httpapi.WithVideoStore(store))

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		log.Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Shutdown error: %v", err)
		}
	}()

	log.Info("Listening on %s", cfg.Server.Addr)
	if err := server.ListenAndServe(cfg.Server.Addr); err != nil {
		log.Info("Server stopped: %v", err)
	}
	runner.Wait()
}
