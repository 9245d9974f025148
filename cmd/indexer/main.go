package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/sitekit/sitekit/internal/indexing"
)

func main() {
	analyzer := flag.String("analyzer", "", "bleve analyzer (standard, en, cjk)")
	quiet := flag.Bool("quiet", false, "disable the progress bar")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <index.json|url> <index-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s public/index.json search/index\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	location := flag.Arg(0)
	indexDir := flag.Arg(1)

	log.Printf("sitekit search indexer (schema v%d)", indexing.IndexSchemaVersion)
	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	startTime := time.Now()
	source := indexing.NewSource(location)
	log.Printf("Loading records: %s", source)
	records, err := source.Load(context.Background())
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	log.Printf("✓ Loaded %d records", len(records))

	var progress func()
	var bar *progressbar.ProgressBar
	if !*quiet && os.Getenv("CI") == "" && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(records),
			progressbar.OptionSetDescription("Indexing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		progress = func() { _ = bar.Add(1) }
	}

	if err := indexing.BuildPersisted(indexDir, *analyzer, records, progress); err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✓ Indexing complete in %v", time.Since(startTime).Round(time.Millisecond))
	log.Printf("")
	log.Printf("Index details:")
	log.Printf("  Location: %s", indexDir)
	log.Printf("  Records:  %d", len(records))
	log.Printf("  Version:  %s (v%d)", indexing.VersionPath(indexDir), indexing.IndexSchemaVersion)
}
