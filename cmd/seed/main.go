// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

// Seed reads a guest list, one name per line, issues every guest a unique
// code and inserts them into the store. It is a one-shot administrative tool;
// the running application never creates guests.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
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
		dbStr     = flag.String("db", "kvdb://testdata/jh.db", "database connection string")
		namesPath = flag.String("names", "testdata/guests.txt", "guest list, one name per line, # starts a comment")
	)
	_ = godotenv.Load()
	flag.Parse()

	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{})
	logger := slog.New(jsonHandler)

	names, err := readNames(*namesPath)
	if err != nil {
		logger.Error("could not read guest list", "path", *namesPath, "error", err)
		os.Exit(1)
	}
	if len(names) == 0 {
		logger.Error("guest list is empty", "path", *namesPath)
		os.Exit(1)
	}

	ctx := context.Background()
	guestsStore, closeStore := openGuestStore(ctx, logger, *dbStr)
	defer closeStore()

	// Codes must stay unique across the whole collection, both persisted
	// guests and the ones issued in this batch.
	existing, err := guestsStore.ListGuests(ctx)
	if err != nil {
		logger.Error("could not list existing guests", "error", err)
		os.Exit(1)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, g := range existing {
		taken[g.Code] = struct{}{}
	}

	logger.Info("seeding guests", "new", len(names), "existing", len(existing))
	for _, name := range names {
		code, err := model.IssueCode(taken)
		if err != nil {
			logger.Error("could not issue code", "name", name, "error", err)
			os.Exit(1)
		}
		if _, err := guestsStore.CreateGuest(ctx, &model.Guest{Name: name, Code: code}); err != nil {
			logger.Error("could not create guest", "name", name, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%-40s %s\n", name, code)
	}
	logger.Info("seeding finished", "created", len(names))
}

func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, scanner.Err()
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
