package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/efinel/node-red/internal/infrastructure"
	"github.com/efinel/node-red/internal/library"
	"github.com/efinel/node-red/internal/store"
)

// action runs a parsed subcommand. A nil result prints nothing.
type action func(ctx context.Context, infra *infrastructure.Infrastructure) (any, error)

// command parses subcommand arguments into an action. Parse failures are
// usage errors and are reported before any system starts.
type command func(args []string) (action, error)

var commands = map[string]command{
	"get":     getCommand,
	"save":    saveCommand,
	"list":    listCommand,
	"migrate": migrateCommand,
}

func getCommand(args []string) (action, error) {
	fs := newFlagSet("get")
	var (
		entryType = fs.String("type", "", "Library entry type")
		path      = fs.String("path", "", "Library entry path")
		user      = fs.String("user", "", "Requesting user")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return func(ctx context.Context, infra *infrastructure.Infrastructure) (any, error) {
		return infra.Library.GetEntry(ctx, library.EntryRequest{
			User: *user,
			Type: *entryType,
			Path: *path,
		})
	}, nil
}

func saveCommand(args []string) (action, error) {
	fs := newFlagSet("save")
	var (
		entryType = fs.String("type", "", "Library entry type")
		path      = fs.String("path", "", "Library entry path")
		user      = fs.String("user", "", "Requesting user")
		meta      = fs.String("meta", "", "Entry metadata as a JSON object")
		body      = fs.String("body", "", "Entry body")
		file      = fs.String("file", "", "Read the entry body from a file (- for stdin)")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	req := library.SaveRequest{
		EntryRequest: library.EntryRequest{User: *user, Type: *entryType, Path: *path},
		Body:         *body,
	}
	if *meta != "" {
		if err := json.Unmarshal([]byte(*meta), &req.Meta); err != nil {
			return nil, fmt.Errorf("parse -meta: %w", err)
		}
	}

	return func(ctx context.Context, infra *infrastructure.Infrastructure) (any, error) {
		if *file != "" {
			content, err := readBody(*file)
			if err != nil {
				return nil, err
			}
			req.Body = content
		}
		return nil, infra.Library.SaveEntry(ctx, req)
	}, nil
}

func listCommand(args []string) (action, error) {
	fs := newFlagSet("list")
	var (
		entryType = fs.String("type", library.FlowsType, "Library entry type")
		user      = fs.String("user", "", "Requesting user")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return func(ctx context.Context, infra *infrastructure.Infrastructure) (any, error) {
		return infra.Library.GetEntries(ctx, library.ListRequest{
			User: *user,
			Type: *entryType,
		})
	}, nil
}

func migrateCommand(args []string) (action, error) {
	if err := newFlagSet("migrate").Parse(args); err != nil {
		return nil, err
	}

	return func(ctx context.Context, infra *infrastructure.Infrastructure) (any, error) {
		m, ok := infra.Store.(store.Migrator)
		if !ok {
			return nil, errors.New("migrate requires the postgres storage backend")
		}
		return nil, m.Migrate(ctx)
	}, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func readBody(file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read body file: %w", err)
	}
	return string(data), nil
}
