package main

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	// Packages
	humanize "github.com/dustin/go-humanize"
	client "github.com/mutablelogic/go-client"
	httpclient "github.com/mutablelogic/go-upload/pkg/httpclient"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type UploadCommands struct {
	Upload UploadCommand `cmd:"" name:"upload" help:"Upload files to a running server." group:"CLIENT"`
}

type UploadCommand struct {
	Path   string            `arg:"" type:"path" help:"File or directory to upload"`
	Field  string            `name:"field" default:"file" help:"Form field name for files"`
	Value  map[string]string `name:"value" help:"Text field as key=value. May be repeated."`
	Hidden bool              `name:"hidden" help:"Include hidden files and directories"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *UploadCommand) Run(app *Globals) error {
	c, err := app.Client()
	if err != nil {
		return err
	}

	// Upload a single file from its parent directory
	root, filter := cmd.Path, cmd.filter(nil)
	if info, err := os.Stat(cmd.Path); err != nil {
		return err
	} else if !info.IsDir() {
		root = filepath.Dir(cmd.Path)
		name := filepath.Base(cmd.Path)
		filter = cmd.filter(func(path string, _ fs.DirEntry) bool {
			return path == "." || path == name
		})
	}

	opts := []httpclient.UploadOpt{
		httpclient.WithField(cmd.Field),
		httpclient.WithFilter(filter),
		httpclient.WithProgress(func(index, count int, path string, written, total int64) {
			app.log.Debug().Msgf("[%d/%d] %s %s/%s", index+1, count, path, humanize.Bytes(uint64(written)), humanize.Bytes(uint64(total)))
		}),
	}
	for k, v := range cmd.Value {
		opts = append(opts, httpclient.WithValue(k, v))
	}

	form, err := c.Upload(app.ctx, os.DirFS(root), opts...)
	if err != nil {
		return err
	}

	// Write the form
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(form)
}

// Client builds an upload client from the global HTTP flags
func (app *Globals) Client() (*httpclient.Client, error) {
	endpoint, err := app.Endpoint()
	if err != nil {
		return nil, err
	}
	opts := []client.ClientOpt{}
	if app.Debug {
		opts = append(opts, client.OptTrace(os.Stderr, false))
	}
	if app.HTTP.Timeout > 0 {
		opts = append(opts, client.OptTimeout(app.HTTP.Timeout))
	}
	return httpclient.New(endpoint, opts...)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// filter skips hidden entries unless requested, then applies fn
func (cmd *UploadCommand) filter(fn func(string, fs.DirEntry) bool) func(string, fs.DirEntry) bool {
	return func(path string, d fs.DirEntry) bool {
		if !cmd.Hidden && path != "." && strings.HasPrefix(d.Name(), ".") {
			return false
		}
		if fn != nil {
			return fn(path, d)
		}
		return true
	}
}
