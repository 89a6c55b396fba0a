package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/application/controller"
	"github.com/storefront/backend/internal/application/interactor"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// errUsage marks a malformed command line.
var errUsage = errors.New("usage")

// command runs one subcommand against the controllers. Its result is
// printed as JSON.
type command func(ctx context.Context, registry *controller.Registry, args []string, stdin io.Reader) (any, error)

var commands = map[string]command{
	"categories": runCategories,
	"products":   runProducts,
	"orders":     runOrders,
	"ops":        runOps,
}

func runCategories(ctx context.Context, registry *controller.Registry, args []string, _ io.Reader) (any, error) {
	fs := newFlagSet("categories")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return registry.Dispatch(ctx, "categories", shared.OpRetrieve, controller.Request{})
}

func runProducts(ctx context.Context, registry *controller.Registry, args []string, _ io.Reader) (any, error) {
	fs := newFlagSet("products")
	var (
		id       = fs.String("id", "", "Show one product")
		search   = fs.String("search", "", "Match names and descriptions")
		category = fs.String("category", "", "Only products of this category id")
		limit    = fs.Int("limit", 0, "Page size; 0 uses the default, negative lists everything")
		offset   = fs.Int("offset", 0, "Rows to skip")
		paginate = fs.Bool("paginate", false, "Wrap results in a pagination envelope")
	)
	if err := parse(fs, args); err != nil {
		return nil, err
	}

	if *id != "" {
		pk, err := parseID("id", *id)
		if err != nil {
			return nil, err
		}
		return registry.Dispatch(ctx, "products", shared.OpDetailByPK, controller.Request{ID: pk})
	}

	filter := catalog.ProductSearchDTO{}
	if *category != "" {
		categoryID, err := parseID("category", *category)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &categoryID
	}
	req := controller.Request{
		Search: *search,
		Query:  shared.Query{FilterDTO: filter},
		Page:   shared.Page{Limit: *limit, Offset: *offset},
	}
	if *paginate {
		req.Options = []interactor.CallOption{interactor.Paginated(true)}
	}
	return registry.Dispatch(ctx, "products", shared.OpSearch, req)
}

func runOrders(ctx context.Context, registry *controller.Registry, args []string, stdin io.Reader) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: orders create|list", errUsage)
	}

	switch args[0] {
	case "create":
		fs := newFlagSet("orders create")
		file := fs.String("file", "-", "Read the order JSON from this file, - for stdin")
		if err := parse(fs, args[1:]); err != nil {
			return nil, err
		}
		dto, err := readOrder(*file, stdin)
		if err != nil {
			return nil, err
		}
		return registry.Dispatch(ctx, "orders", shared.OpCreate, controller.Request{Body: dto})

	case "list":
		fs := newFlagSet("orders list")
		hashes := fs.String("hash", "", "Comma separated order hashes")
		if err := parse(fs, args[1:]); err != nil {
			return nil, err
		}
		filter := order.FilterDTO{Hashes: splitList(*hashes)}
		return registry.Dispatch(ctx, "orders", shared.OpRetrieve, controller.Request{
			Query: shared.Query{FilterDTO: filter},
		})

	default:
		return nil, fmt.Errorf("%w: unknown orders command %q", errUsage, args[0])
	}
}

func runOps(_ context.Context, registry *controller.Registry, args []string, _ io.Reader) (any, error) {
	if err := parse(newFlagSet("ops"), args); err != nil {
		return nil, err
	}
	return registry.Operations(), nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", errUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

func parseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: -%s must be a uuid, got %q", errUsage, name, value)
	}
	return id, nil
}

// readOrder decodes an order payload. Unknown fields are rejected so typos
// do not silently drop data.
func readOrder(path string, stdin io.Reader) (*order.CreateDTO, error) {
	src := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open order file: %w", err)
		}
		defer f.Close()
		src = f
	}

	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	var dto order.CreateDTO
	if err := dec.Decode(&dto); err != nil {
		return nil, fmt.Errorf("%w: decode order: %v", shared.ErrInvalidInput, err)
	}
	return &dto, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
