// Command textpipe processes one text unit through the full pipeline
// and prints the stored result.
//
// Usage:
//
//	textpipe -db results.db [-lexicon markers.yaml] [-source review] "some text"
//	echo "some text" | textpipe -db results.db
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tidelake/textpipe/pkg/textpipe"
	"github.com/tidelake/textpipe/pkg/textpipe/config"
	"github.com/tidelake/textpipe/pkg/textpipe/record"
	"github.com/tidelake/textpipe/pkg/textpipe/sentiment"
	"github.com/tidelake/textpipe/pkg/textpipe/store/sqlite"
)

func main() {
	var (
		dbPath      = flag.String("db", "", "Database path (overrides config)")
		lexiconPath = flag.String("lexicon", "", "Marker lexicon YAML (default: built-in lists)")
		configPath  = flag.String("config", "", "Config file (optional)")
		source      = flag.String("source", "cli", "Source label attached to the record")
		trace       = flag.String("trace", "", "Trace id (default: generated)")
		timeout     = flag.Duration("timeout", 30*time.Second, "Deadline for the whole run")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *lexiconPath != "" {
		cfg.Lexicon.Path = *lexiconPath
	}

	logger := cfg.Logging.NewLogger()

	text, err := readInput(flag.Args())
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		log.Fatalf("open store %s: %v", cfg.Database.Path, err)
	}

	var lex *sentiment.Lexicon
	if cfg.Lexicon.Path != "" {
		lex, err = sentiment.LoadFromYAML(cfg.Lexicon.Path)
		if err != nil {
			log.Fatalf("load lexicon: %v", err)
		}
	}

	proc, err := textpipe.New(textpipe.Options{
		Store:         st,
		Lexicon:       lex,
		Logger:        logger,
		RetryAttempts: cfg.Retry.Attempts,
		RetryBackoff:  time.Duration(cfg.Retry.Backoff),
	})
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}
	defer proc.Close()

	raw := record.NewRawText(text, *source)
	if *trace != "" {
		id, err := uuid.Parse(*trace)
		if err != nil {
			log.Fatalf("parse trace id: %v", err)
		}
		raw.TraceID = id
	}

	result, err := proc.Process(ctx, raw)
	if err != nil {
		log.Fatalf("process: %v", err)
	}

	fmt.Printf("stored    %s\n", result.StorageID)
	fmt.Printf("sentiment %s (score %.3f)\n", result.Sentiment, result.SentimentScore)
	fmt.Printf("content   %s\n", result.Content)
}

func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
