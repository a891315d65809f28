package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	types "github.com/mutablelogic/go-server/pkg/types"
	zerolog "github.com/rs/zerolog"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	Debug bool `help:"Enable debug output"`
	JSON  bool `help:"Write logs as JSON"`

	HTTP struct {
		Addr    string        `env:"UPLOAD_ADDR" default:"localhost:8080" help:"HTTP listen address"`
		Prefix  string        `env:"UPLOAD_PREFIX" default:"/api" help:"HTTP path prefix"`
		Timeout time.Duration `default:"0s" help:"Client request timeout (0 disables)"`
	} `embed:"" prefix:"http."`

	vars   kong.Vars `kong:"-"` // Variables for kong
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewApp(app Globals, vars kong.Vars) *Globals {
	// Set the vars
	app.vars = vars

	// Create the logger
	app.log = newLogger(os.Stderr, app.JSON, app.Debug)

	// Create the context
	// This context is cancelled when the process receives a SIGINT or SIGTERM
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Return the app
	return &app
}

func (app *Globals) Close() error {
	app.cancel()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// METHODS

func (app *Globals) Context() context.Context {
	return app.ctx
}

func (app *Globals) Logger() zerolog.Logger {
	return app.log
}

// Endpoint returns the client endpoint for the server listen address
func (app *Globals) Endpoint() (string, error) {
	scheme := "http"
	host, port, err := net.SplitHostPort(app.HTTP.Addr)
	if err != nil {
		return "", err
	}
	if host == "" {
		host = "localhost"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	portn, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return "", err
	}
	if portn == 443 {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%v%s", scheme, host, portn, types.NormalisePath(app.HTTP.Prefix)), nil
}
