// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	editais "github.com/poiesic/editais"
	"github.com/poiesic/editais/cache"
	"github.com/poiesic/editais/config"
	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/pipeline"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on the environment")
	}

	app := &cli.App{
		Name:   "editais",
		Usage:  "Aggregates Brazilian public procurement notices across portals",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "search",
				Usage:  "Run one aggregation query and print the results as JSON",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Usage:    "Publication window start (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Publication window end (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "sector",
						Usage: "Named keyword rule set from the configuration",
					},
					&cli.StringSliceFlag{
						Name:  "term",
						Usage: "Free-text search term (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "state",
						Aliases: []string{"uf"},
						Usage:   "Two-letter state code (repeatable)",
					},
					&cli.Float64Flag{
						Name:  "min-value",
						Usage: "Minimum estimated value",
					},
					&cli.Float64Flag{
						Name:  "max-value",
						Usage: "Maximum estimated value",
					},
					&cli.StringFlag{
						Name:  "modality",
						Usage: "Procurement modality filter",
					},
					&cli.IntFlag{
						Name:  "page",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Value: 50,
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Probe every configured source portal",
				Action: healthCommand,
			},
			{
				Name:  "cache",
				Usage: "Inspect and manage the durable cache tier",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List cached query entries",
						Action: cacheListCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "priority",
								Usage: "Only entries with this priority (hot, warm, cold)",
							},
						},
					},
					{
						Name:      "invalidate",
						Usage:     "Drop one cache entry by key",
						ArgsUsage: "<key>",
						Action:    cacheInvalidateCommand,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newService() (*editais.Service, error) {
	return editais.NewService(config.Load())
}

func searchCommand(c *cli.Context) error {
	from, err := time.Parse(dateLayout, c.String("from"))
	if err != nil {
		return fmt.Errorf("invalid --from date: %w", err)
	}
	to, err := time.Parse(dateLayout, c.String("to"))
	if err != nil {
		return fmt.Errorf("invalid --to date: %w", err)
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	resp, err := svc.Search(c.Context, &pipeline.Query{
		DateFrom: from,
		DateTo:   to,
		Sector:   c.String("sector"),
		Terms:    c.StringSlice("term"),
		States:   c.StringSlice("state"),
		MinValue: c.Float64("min-value"),
		MaxValue: c.Float64("max-value"),
		Modality: c.String("modality"),
		Page:     c.Int("page"),
		PageSize: c.Int("page-size"),
	})
	if err != nil {
		return err
	}

	return printJSON(resp)
}

func healthCommand(c *cli.Context) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	health := svc.Health(c.Context)
	names := map[core.SourceName]string{}
	for name, state := range health {
		names[name] = state.String()
	}
	return printJSON(names)
}

func cacheListCommand(c *cli.Context) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	now := time.Now()
	var filter func(*cache.Entry) bool
	if p := c.String("priority"); p != "" {
		filter = func(e *cache.Entry) bool { return e.PriorityAt(now).String() == p }
	}

	entries, err := svc.CacheEntries(c.Context, filter)
	if err != nil {
		return err
	}

	type row struct {
		Key         string    `json:"key"`
		Records     int       `json:"records"`
		FetchedAt   time.Time `json:"fetchedAt"`
		Priority    string    `json:"priority"`
		AccessCount int       `json:"accessCount"`
		FailStreak  int       `json:"failStreak"`
	}
	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = row{
			Key:         e.Key,
			Records:     len(e.Records),
			FetchedAt:   e.FetchedAt,
			Priority:    e.PriorityAt(now).String(),
			AccessCount: e.AccessCount,
			FailStreak:  e.FailStreak,
		}
	}
	return printJSON(rows)
}

func cacheInvalidateCommand(c *cli.Context) error {
	key := c.Args().First()
	if key == "" {
		return fmt.Errorf("a cache key is required")
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.InvalidateCache(c.Context, key)
	fmt.Printf("invalidated %s\n", key)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
