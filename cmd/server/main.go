// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JosuX/jh/internal/db"
	"github.com/JosuX/jh/internal/db/kvdb"
	"github.com/JosuX/jh/internal/db/mongodb"
	"github.com/JosuX/jh/internal/server"
)

func main() {
	var (
		serviceName = flag.String("service-name", "jh-invite", "otel service name")
		addr        = flag.String("addr", "0.0.0.0:8080", "default server address")
		dbStr       = flag.String("db", "kvdb://testdata/jh.db", "database connection string")
		otlpAddr    = flag.String("otlp-grpc", "", "default otlp/gRPC address, by default disabled. Example value: localhost:4317")
		logLevelArg = flag.String("log-level", "INFO", "log level")
		staticDir   = flag.String("static-dir", "", "path to static directory")
		cutoffArg   = flag.String("cutoff", "", "event start in format: 06 Mar 26 16:00 +0800, scans before it are simulated")
	)
	_ = godotenv.Load()
	flag.Parse()

	var logLevel slog.Level
	err := logLevel.UnmarshalText([]byte(*logLevelArg))
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(jsonHandler)
	if err != nil {
		logger.Error("unable to parse log level", "level-input", *logLevelArg, "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger)
	logger.Info("start and listen", "address", *addr)
	logger.Info("otlp/gRPC", "address", *otlpAddr, "service", *serviceName)
	logger.Info("static-dir", "directory", *staticDir)

	if *otlpAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		grpcOptions := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock()}
		conn, err := grpc.DialContext(ctx, *otlpAddr, grpcOptions...)
		if err != nil {
			logger.Error("failed to create gRPC connection to collector", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		otelExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			logger.Error("failed to create trace exporter", "error", err)
			os.Exit(1)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(otelExporter))
		otel.SetTracerProvider(tp)
	}

	var cutoff time.Time
	if *cutoffArg != "" {
		var err error
		cutoff, err = time.Parse(time.RFC822Z, *cutoffArg)
		if err != nil {
			logger.Error("failed to parse cutoff", "error", err)
			os.Exit(1)
		}
		logger.Info("cutoff set to", "date", *cutoffArg)
	}

	adminPassword := "admin"
	if v, ok := os.LookupEnv("JH_ADMIN_PASSWORD"); ok {
		adminPassword = v
	}

	var (
		guestsStore  db.GuestStore
		sessionStore db.SessionStore
	)

	u, err := url.Parse(*dbStr)
	if err != nil {
		logger.Error("unable to parse db connection string", "error", err)
		os.Exit(1)
	}

	switch u.Scheme {
	case "kvdb":
		path := u.Host + u.Path
		bdb, err := bolt.Open(path, 0600, nil)
		if err != nil {
			logger.Error("could not open database", "error", err)
			os.Exit(1)
		}
		defer bdb.Close()

		guestsStore, err = kvdb.NewGuestStore(bdb)
		if err != nil {
			logger.Error("could not initialize guest bucket", "error", err)
			os.Exit(1)
		}

		sessionStore, err = kvdb.NewSessionStore(bdb)
		if err != nil {
			logger.Error("could not initialize session bucket", "error", err)
			os.Exit(1)
		}
	case "mongodb", "mongodb+srv":
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(*dbStr))
		if err != nil {
			logger.Error("could not connect to mongodb", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()
		if err := client.Ping(ctx, nil); err != nil {
			logger.Error("could not reach mongodb", "error", err)
			os.Exit(1)
		}

		mdb := client.Database("jh")
		guestsStore, err = mongodb.NewGuestStore(ctx, mdb)
		if err != nil {
			logger.Error("could not initialize guest collection", "error", err)
			os.Exit(1)
		}

		sessionStore, err = mongodb.NewSessionStore(ctx, mdb)
		if err != nil {
			logger.Error("could not initialize session collection", "error", err)
			os.Exit(1)
		}
	default:
		logger.Error("Unknown storage backend", "type", u.Scheme)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr: *addr,
		Handler: server.NewServer(
			*serviceName,
			*staticDir,
			adminPassword,
			cutoff,
			guestsStore,
			sessionStore,
		),
	}

	if err := srv.ListenAndServe(); err != nil {
		logger.Error("error during listen and serve", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown")
}
