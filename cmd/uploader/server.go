package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	// Packages
	upload "github.com/mutablelogic/go-upload"
	httphandler "github.com/mutablelogic/go-upload/pkg/httphandler"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	storage "github.com/mutablelogic/go-upload/pkg/storage"
	uploader "github.com/mutablelogic/go-upload/pkg/uploader"
	version "github.com/mutablelogic/go-upload/pkg/version"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	otel "go.opentelemetry.io/otel"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ServerCommands struct {
	Server RunServerCommand `cmd:"" name:"server" help:"Run HTTP server." group:"SERVER"`
}

type RunServerCommand struct {
	Strategy     string     `default:"any" enum:"any,none,single,array,fields" help:"File strategy (any, none, single, array, fields)"`
	Field        []string   `name:"field" help:"File field as name or name:count. May be repeated." optional:""`
	Dest         string     `name:"dest" type:"path" help:"Store files in a directory" xor:"storage"`
	Bucket       string     `name:"bucket" help:"Store files in a bucket (e.g. mem://, file:///path, s3://bucket/prefix)" xor:"storage"`
	PreservePath bool       `name:"preserve-path" help:"Keep directory components of client filenames"`
	Limit        LimitFlags `embed:"" prefix:"limit."`

	S3 struct {
		Endpoint  string `name:"endpoint" env:"AWS_ENDPOINT_URL" help:"S3-compatible endpoint URL"`
		Region    string `name:"region" env:"AWS_REGION" help:"AWS region"`
		AccessKey string `name:"access-key" env:"AWS_ACCESS_KEY_ID" help:"AWS access key"`
		SecretKey string `name:"secret-key" env:"AWS_SECRET_ACCESS_KEY" help:"AWS secret key"`
		Anonymous bool   `name:"anonymous" help:"Use anonymous credentials"`
	} `embed:"" prefix:"s3."`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const shutdownTimeout = 10 * time.Second

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServerCommand) Run(app *Globals) error {
	limits, err := cmd.Limit.limits()
	if err != nil {
		return err
	}

	// Create the storage
	store, err := cmd.storage(app.ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// Create the uploader
	opts := []uploader.Opt{
		uploader.WithStorage(store),
		uploader.WithLimits(limits),
		uploader.WithLogger(app.log),
		uploader.WithTracer(otel.Tracer(schema.SchemaName)),
	}
	if cmd.PreservePath {
		opts = append(opts, uploader.WithPreservePath())
	}
	u, err := uploader.New(opts...)
	if err != nil {
		return err
	}
	mw, err := middleware(u, cmd.Strategy, cmd.Field)
	if err != nil {
		return err
	}

	return serve(app, mw)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// storage returns a bucket, a directory or memory storage
func (cmd *RunServerCommand) storage(ctx context.Context) (upload.Storage, error) {
	switch {
	case cmd.Bucket != "":
		opts := []storage.BlobOpt{
			storage.WithTracerProvider(otel.GetTracerProvider()),
		}
		if cmd.S3.Endpoint != "" {
			opts = append(opts, storage.WithEndpoint(cmd.S3.Endpoint))
		}
		if cmd.S3.Anonymous {
			opts = append(opts, storage.WithAnonymous())
		}
		switch {
		case strings.HasPrefix(cmd.Bucket, "s3:"):
			cfg, err := storage.LoadAWSConfig(ctx, cmd.S3.Region, cmd.S3.AccessKey, cmd.S3.SecretKey)
			if err != nil {
				return nil, err
			}
			opts = append(opts, storage.WithAWSConfig(cfg))
		case strings.HasPrefix(cmd.Bucket, "file:"):
			opts = append(opts, storage.WithCreateDir())
		}
		return storage.NewBlob(ctx, cmd.Bucket, opts...)
	case cmd.Dest != "":
		return storage.NewDisk(storage.WithDestination(cmd.Dest))
	default:
		return storage.NewMemory(), nil
	}
}

// serve registers HTTP handlers and runs the server until the context is done
func serve(app *Globals, mw *uploader.Middleware) error {
	router := newRouter(app.HTTP.Prefix, app.log)

	// Register handlers
	if err := httphandler.RegisterHandlers(mw, app.log, router); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(version.JSON(execName()))
	})

	// Run the server until the context is cancelled
	srv := &http.Server{Addr: app.HTTP.Addr, Handler: router}
	g, ctx := errgroup.WithContext(app.ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	app.log.Info().Str("addr", app.HTTP.Addr).Str("strategy", mw.Strategy().String()).Msgf("uploader@%s started", version.Version())
	if err := g.Wait(); err != nil {
		return err
	}
	app.log.Info().Msg("uploader stopped")
	return nil
}
