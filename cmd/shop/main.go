// Command shop runs storefront catalog and order operations from the
// command line and prints the results as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/application/scope"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("shop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	principal := fs.String("principal", "", "Run as this principal id")
	compact := fs.Bool("compact", false, "Print JSON on a single line")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return exitUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		printUsage(stderr)
		return exitUsage
	}

	frame := scope.Frame{}
	if *principal != "" {
		id, err := uuid.Parse(*principal)
		if err != nil {
			fmt.Fprintf(stderr, "-principal must be a uuid, got %q\n", *principal)
			return exitUsage
		}
		frame.Principal = &id
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, _ = scope.Init(ctx, frame)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to start: %v\n", err)
		return exitError
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			fmt.Fprintf(stderr, "Failed to shut down cleanly: %v\n", err)
		}
	}()

	out, err := cmd(ctx, a.registry, rest[1:], stdin)
	if err != nil {
		return reportError(stderr, err)
	}
	if err := writeJSON(stdout, out, !*compact); err != nil {
		fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
		return exitError
	}
	return exitOK
}

// reportError prints err and returns the exit code. Validation failures
// are printed as JSON so scripts can read the field locations.
func reportError(w io.Writer, err error) int {
	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		_ = writeJSON(w, verr, true)
		return exitUsage
	case errors.Is(err, errUsage), errors.Is(err, shared.ErrInvalidInput):
		fmt.Fprintln(w, err)
		return exitUsage
	default:
		fmt.Fprintln(w, err)
		return exitError
	}
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Storefront catalog and orders

Usage:
  shop [flags] <command> [arguments]

Commands:
  categories                       List active categories
  products [-search s] [-category id] [-limit n] [-offset n] [-paginate]
                                   Search active products
  products -id <id>                Show one product
  orders create [-file path]       Place an order from JSON (default: stdin)
  orders list -hash h1,h2          Show orders by hash
  ops                              List the operations of every controller

Flags:
  -principal string   Run as this principal id
  -compact            Print JSON on a single line

Configuration is read from config.toml and SHOP_* variables.
`)
}
