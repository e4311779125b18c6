// Command seed loads items and their timelines from a JSON file into the
// store named by DATABASE_URL, migrating it first.
//
// Usage:
//
//	seed [-author 1] figures.json
//
// The file holds an array of {"name", "description", "timeline": [{"start", "what"}]}.
// Starts the date grammar does not recognize are stored verbatim with a
// warning, or refused when STRICT_DATES is set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkordes/figure-timeline/internal/config"
	"github.com/pkordes/figure-timeline/internal/repo"
	"github.com/pkordes/figure-timeline/internal/service"
	"github.com/pkordes/figure-timeline/internal/timeline"
)

// seedItem is one element of the seed file.
type seedItem struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Timeline    []timeline.Draft `json:"timeline"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(context.Background(), os.Args[1:], os.Stdout, logger); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	author := fs.Int64("author", 0, "author id stamped on seeded items (default AUTHOR_ID)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: seed [-author id] <file.json>")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *author == 0 {
		*author = cfg.AuthorID
	}

	items, err := readSeedFile(fs.Arg(0))
	if err != nil {
		return err
	}

	backend, err := cfg.Driver()
	if err != nil {
		return err
	}
	store, err := repo.Open(ctx, backend, cfg.DatabaseURL, true)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.NewItemService(store.Items, nil, log)
	for _, it := range items {
		drafts := timeline.NewDrafts(it.Timeline...)
		if err := drafts.Validate(); err != nil {
			if cfg.StrictDates {
				return fmt.Errorf("seed %q: %w", it.Name, err)
			}
			log.WarnContext(ctx, "storing unrecognized dates verbatim", "name", it.Name, "error", err)
		}
		saved, err := svc.Save(ctx, service.SaveItemRequest{
			Name:        it.Name,
			Description: it.Description,
			AuthorID:    *author,
			Entries:     drafts.Entries(),
		})
		if err != nil {
			return fmt.Errorf("seed %q: %w", it.Name, err)
		}
		fmt.Fprintf(out, "seeded item %d %q with %d entries\n", saved.ID, saved.Name, len(it.Timeline))
	}
	return nil
}

func readSeedFile(path string) ([]seedItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	var items []seedItem
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return items, nil
}
