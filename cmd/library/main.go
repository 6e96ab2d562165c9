package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/efinel/node-red/internal/audit"
	"github.com/efinel/node-red/internal/config"
	"github.com/efinel/node-red/internal/infrastructure"
	"github.com/efinel/node-red/internal/library"
)

const usage = `usage: library [-config dir] <command> [flags]

commands:
  get      -type T -path P [-user U]
  save     -type T -path P [-meta JSON] [-body S | -file F] [-user U]
  list     -type flows [-user U]
  migrate
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("library", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	dir := fs.String("config", ".", "Directory containing config.toml")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	act, err := cmd(fs.Args()[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.Usage()
			return 0
		}
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*dir)
	if err != nil {
		fmt.Fprintf(stderr, "config load failed: %v\n", err)
		return 1
	}
	if err := cfg.Finalize(); err != nil {
		fmt.Fprintf(stderr, "config finalize failed: %v\n", err)
		return 1
	}

	infra, err := infrastructure.New(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "infrastructure init failed: %v\n", err)
		return 1
	}
	if err := infra.Start(); err != nil {
		fmt.Fprintf(stderr, "infrastructure start failed: %v\n", err)
		return 1
	}
	infra.Lifecycle.WaitForStartup()

	defer func() {
		if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
			infra.Logger.Error("shutdown failed", "error", err)
		}
	}()

	ctx := audit.WithCorrelationID(infra.Lifecycle.Context(), "")

	result, err := act(ctx, infra)
	if err != nil {
		writeError(stderr, err)
		return 1
	}
	if result != nil {
		writeResult(stdout, result)
	}
	return 0
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status"`
}

func writeError(w io.Writer, err error) {
	code := library.ErrorCode(err)
	var le *library.Error
	if errors.As(err, &le) && le.Code != "" {
		code = le.Code
	}

	json.NewEncoder(w).Encode(errorResponse{
		Error:  err.Error(),
		Code:   code,
		Status: library.MapHTTPStatus(err),
	})
}

// writeResult prints entry bodies verbatim and everything else as JSON.
func writeResult(w io.Writer, result any) {
	if body, ok := result.(string); ok {
		fmt.Fprintln(w, body)
		return
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(result)
}
