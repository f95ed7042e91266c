package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/abdliliaai/Rxsentinel/internal/adapters/documents"
	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/clients/openai"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/observability"
	"github.com/abdliliaai/Rxsentinel/internal/pipeline"
	"github.com/abdliliaai/Rxsentinel/pkg/config"
)

// verify runs one prescription document through the full pipeline from the
// command line and prints the result document to stdout.
func main() {
	var (
		filePath = flag.String("file", "", "path to the prescription document (PDF, PNG or JPEG)")
		compact  = flag.Bool("compact", false, "print the result as a single JSON line")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: verify -file <prescription.pdf>")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("rxsentinel-verify", os.Getenv("APP_ENV"))
	logger := observability.GetLogger()

	if cfg.OpenAI.APIKey == "" {
		logger.Fatal().Msg("OPENAI_API_KEY is not set")
	}
	engine, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize reasoning client")
	}

	content, err := os.ReadFile(*filePath)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *filePath).Msg("failed to read document")
	}

	ctx := context.Background()
	rasterizer := documents.NewRasterizer(&cfg.Documents)
	images, err := rasterizer.Rasterize(ctx, filepath.Base(*filePath), content)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to rasterize document")
	}

	documentKind := "image"
	if len(images) > 1 {
		documentKind = "pdf"
	}

	orchestrator := pipeline.NewOrchestrator(engine, pipeline.Config{
		StageTimeout: cfg.Pipeline.StageTimeout,
	})
	state := orchestrator.Run(ctx, images, documentKind)

	var out []byte
	if *compact {
		out, err = json.Marshal(state.Result())
	} else {
		out, err = json.MarshalIndent(state.Result(), "", "  ")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to serialize result")
	}

	fmt.Println(string(out))

	if state.ApprovalStatus == entities.StatusError {
		os.Exit(1)
	}
}
