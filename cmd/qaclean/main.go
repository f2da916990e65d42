package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sleepstars/periop-assistant/internal/config"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/qaextract"
)

func main() {
	inputFolder := flag.String("input_folder", "", "Folder containing the .docx source files (required)")
	outputFile := flag.String("output_file", "", "Output path (default cleaned_output_<timestamp>.<format>)")
	format := flag.String("format", "csv", "Output format: csv or jsonl")
	configPath := flag.String("config", "", "Configuration file providing the system prompt for jsonl output")
	flag.Parse()

	logger.InitLogger(logger.INFO, "qaclean")
	log := logger.GetLogger()

	*format = strings.ToLower(*format)
	if *format != qaextract.FormatCSV && *format != qaextract.FormatJSONL {
		log.Fatal("-format must be csv or jsonl, got %q", *format)
	}
	if *inputFolder == "" {
		flag.Usage()
		log.Fatal("-input_folder is required")
	}
	if info, err := os.Stat(*inputFolder); err != nil || !info.IsDir() {
		log.Fatal("Input folder %s does not exist", *inputFolder)
	}
	if *outputFile == "" {
		*outputFile = fmt.Sprintf("cleaned_output_%s.%s", time.Now().Format("20060102_150405"), *format)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	result, err := qaextract.ProcessDir(*inputFolder)
	if err != nil {
		log.WithError(err).Fatal("Failed to process input folder")
	}

	written, err := qaextract.WriteFile(*outputFile, *format, result.Pairs, cfg.Prompts.System)
	if errors.Is(err, qaextract.ErrNoPairs) {
		log.Warn("No question/answer pairs extracted from %d files; nothing written", result.Files)
		return
	}
	if err != nil {
		log.WithError(err).Fatal("Failed to write output")
	}

	log.Info("Processed %d files, extracted %d pairs, wrote %d records to %s",
		result.Files, len(result.Pairs), written, *outputFile)
}
