// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

// Export dumps the guest directory as CSV, for printing place cards or
// keeping an offline copy of the codes.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JosuX/jh/internal/db"
	"github.com/JosuX/jh/internal/db/kvdb"
	"github.com/JosuX/jh/internal/db/mongodb"
	"github.com/JosuX/jh/internal/model"
)

func main() {
	var (
		dbStr   = flag.String("db", "kvdb://testdata/jh.db", "database connection string")
		outPath = flag.String("o", "", "output file, stdout when empty")
	)
	_ = godotenv.Load()
	flag.Parse()

	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{})
	logger := slog.New(jsonHandler)

	ctx := context.Background()
	guestsStore, closeStore := openGuestStore(ctx, logger, *dbStr)
	defer closeStore()

	guests, err := guestsStore.ListGuests(ctx)
	if err != nil {
		logger.Error("could not list guests", "error", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Error("could not create output file", "path", *outPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := writeCSV(out, guests); err != nil {
		logger.Error("could not write csv", "error", err)
		os.Exit(1)
	}
	logger.Info("export finished", "guests", len(guests))
}

func writeCSV(out io.Writer, guests []*model.Guest) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"name", "code", "status", "rsvpConfirmed", "createdAt", "updatedAt"}); err != nil {
		return err
	}
	for _, g := range guests {
		record := []string{
			g.Name,
			g.Code,
			string(g.Status),
			strconv.FormatBool(g.RSVPConfirmed),
			formatTime(g.CreatedAt),
			formatTime(g.UpdatedAt),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func openGuestStore(ctx context.Context, logger *slog.Logger, dbStr string) (db.GuestStore, func()) {
	u, err := url.Parse(dbStr)
	if err != nil {
		logger.Error("unable to parse db connection string", "error", err)
		os.Exit(1)
	}

	switch u.Scheme {
	case "kvdb":
		bdb, err := bolt.Open(u.Host+u.Path, 0600, nil)
		if err != nil {
			logger.Error("could not open database", "error", err)
			os.Exit(1)
		}
		store, err := kvdb.NewGuestStore(bdb)
		if err != nil {
			logger.Error("could not initialize guest bucket", "error", err)
			os.Exit(1)
		}
		return store, func() { _ = bdb.Close() }
	case "mongodb", "mongodb+srv":
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(dbStr))
		if err != nil {
			logger.Error("could not connect to mongodb", "error", err)
			os.Exit(1)
		}
		store, err := mongodb.NewGuestStore(connectCtx, client.Database("jh"))
		if err != nil {
			logger.Error("could not initialize guest collection", "error", err)
			os.Exit(1)
		}
		return store, func() { _ = client.Disconnect(context.Background()) }
	default:
		logger.Error("Unknown storage backend", "type", u.Scheme)
		os.Exit(1)
	}
	return nil, nil
}
