// Package order implements order placement and order lookup by hash.
package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/interactor"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence/convert"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// DefaultHashLength is the length of the random part of an order hash.
const DefaultHashLength = 16

const hashAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Validation messages
const (
	MsgProductUnavailable = "product is not available"
	MsgHashesRequired     = "at least one hash is required"
)

// Metrics records placed orders. telemetry.OperationMetrics implements it.
type Metrics interface {
	RecordOrderCreated(ctx context.Context, total decimal.Decimal)
}

// Repositories holds the data access an OrderInteractor needs.
type Repositories struct {
	Orders   order.Repository
	Items    order.ItemRepository
	Statuses order.StatusRepository
	Products catalog.ProductRepository
}

// Options configures the order interactor
type Options struct {
	// HashLength is the length of the random part of a hash; zero uses
	// DefaultHashLength
	HashLength int
	Transactor shared.Transactor
	Metrics    Metrics
	Interactor []interactor.Option
}

// OrderInteractor places orders and lists them by hash.
type OrderInteractor struct {
	*interactor.Interactor
	repos      Repositories
	transactor shared.Transactor
	metrics    Metrics
	hashLength int
	validator  *convert.Validator
}

// NewOrderInteractor creates the order interactor.
func NewOrderInteractor(repos Repositories, opts Options) (*OrderInteractor, error) {
	switch {
	case repos.Items == nil:
		return nil, shared.NewConfigurationError("orders", "item repository is not set")
	case repos.Statuses == nil:
		return nil, shared.NewConfigurationError("orders", "status repository is not set")
	case repos.Products == nil:
		return nil, shared.NewConfigurationError("orders", "product repository is not set")
	}

	base := []interactor.Option{
		interactor.WithReturnTypes(shared.ReturnTypes{General: reflect.TypeFor[order.InfoDTO]()}),
	}
	if opts.Transactor != nil {
		base = append(base, interactor.WithTransactor(opts.Transactor))
	}
	it, err := interactor.New("orders", repos.Orders, append(base, opts.Interactor...)...)
	if err != nil {
		return nil, err
	}

	hashLength := opts.HashLength
	if hashLength <= 0 {
		hashLength = DefaultHashLength
	}
	return &OrderInteractor{
		Interactor: it,
		repos:      repos,
		transactor: opts.Transactor,
		metrics:    opts.Metrics,
		hashLength: hashLength,
		validator:  convert.NewValidator(),
	}, nil
}

// Operations lists create and retrieve.
func (i *OrderInteractor) Operations() []string {
	return []string{shared.OpCreate, shared.OpRetrieve}
}

// Create places the order described by dto, an order.CreateDTO. Line
// prices come from the current product prices and the order gets the
// default status. The result is an *order.CreateResultDTO.
func (i *OrderInteractor) Create(ctx context.Context, dto any, _ ...interactor.CallOption) (any, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, i.Name(), shared.OpCreate)
	var err error
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
		span.End()
	}()

	in, err := createDTO(dto)
	if err != nil {
		return nil, err
	}
	if err = i.validator.Struct(in); err != nil {
		return nil, err
	}

	var placed placedOrder
	err = i.inTransaction(ctx, func(ctx context.Context) error {
		var err error
		placed, err = i.place(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	if i.metrics != nil {
		i.metrics.RecordOrderCreated(ctx, placed.total)
	}
	logger.L(ctx).Info("Order placed",
		zap.String("order_id", placed.id.String()),
		zap.String("hash", placed.hash),
		zap.Int("items", placed.items),
		zap.String("total", placed.total.StringFixed(2)),
	)
	return &order.CreateResultDTO{Hash: placed.hash}, nil
}

type placedOrder struct {
	id    uuid.UUID
	hash  string
	total decimal.Decimal
	items int
}

func (i *OrderInteractor) place(ctx context.Context, in *order.CreateDTO) (placedOrder, error) {
	lines, total, err := i.price(ctx, in.Items)
	if err != nil {
		return placedOrder{}, err
	}
	status, err := i.defaultStatus(ctx)
	if err != nil {
		return placedOrder{}, err
	}
	hash, err := i.newHash(ctx)
	if err != nil {
		return placedOrder{}, err
	}

	out, err := i.repos.Orders.Create(ctx, map[string]any{
		"StatusID":        status.ID,
		"Hash":            hash,
		"Total":           total,
		"DeliveryAddress": in.DeliveryAddress,
		"DeliveryTime":    in.DeliveryTime,
		"AdditionalInfo":  in.AdditionalInfo,
	})
	if err != nil {
		return placedOrder{}, fmt.Errorf("create order: %w", err)
	}
	id, ok := out.(uuid.UUID)
	if !ok {
		return placedOrder{}, fmt.Errorf("create order: unexpected id %T", out)
	}

	if len(lines) > 0 {
		entities := make([]any, len(lines))
		for idx, line := range lines {
			line["OrderID"] = id
			entities[idx] = line
		}
		if _, err := i.repos.Items.BulkCreate(ctx, entities); err != nil {
			return placedOrder{}, fmt.Errorf("create order items: %w", err)
		}
	}
	return placedOrder{id: id, hash: hash, total: total, items: len(lines)}, nil
}

// price builds the order lines of items and their total. Every product
// must exist and be active.
func (i *OrderInteractor) price(ctx context.Context, items []order.ItemCreateDTO) ([]map[string]any, decimal.Decimal, error) {
	total := decimal.Zero
	if len(items) == 0 {
		return nil, total, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	i.repos.Products.WithDTO(reflect.TypeFor[catalog.Product]())
	defer i.repos.Products.CleanDTOContext()
	out, err := i.repos.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, total, fmt.Errorf("load products: %w", err)
	}
	products, err := convert.AsSlice[catalog.Product](out)
	if err != nil {
		return nil, total, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	verr := &shared.ValidationError{}
	lines := make([]map[string]any, 0, len(items))
	for idx, item := range items {
		p, ok := byID[item.ProductID]
		if !ok || !p.IsActive {
			verr.Add(MsgProductUnavailable, "items", strconv.Itoa(idx), "product_id")
			continue
		}
		price := p.Price.Mul(decimal.NewFromInt(int64(item.Count)))
		total = total.Add(price)
		lines = append(lines, map[string]any{
			"ProductID": item.ProductID,
			"Count":     item.Count,
			"Price":     price,
		})
	}
	if verr.HasItems() {
		return nil, total, verr
	}
	return lines, total, nil
}

func (i *OrderInteractor) defaultStatus(ctx context.Context) (*order.Status, error) {
	i.repos.Statuses.WithDTO(reflect.TypeFor[order.Status]())
	defer i.repos.Statuses.CleanDTOContext()
	out, err := i.repos.Statuses.Detail(ctx, shared.Where(shared.Filters{"is_default": true}))
	if err != nil {
		return nil, fmt.Errorf("default order status: %w", err)
	}
	return convert.As[order.Status](out)
}

// newHash numbers the order after the existing ones and appends a random
// alphanumeric token.
func (i *OrderInteractor) newHash(ctx context.Context) (string, error) {
	count, err := i.repos.Orders.Count(ctx, shared.Query{})
	if err != nil {
		return "", fmt.Errorf("count orders: %w", err)
	}
	token, err := randomToken(i.hashLength)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(count+1, 10) + ":" + token, nil
}

func randomToken(n int) (string, error) {
	limit := big.NewInt(int64(len(hashAlphabet)))
	buf := make([]byte, n)
	for idx := range buf {
		v, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("order hash: %w", err)
		}
		buf[idx] = hashAlphabet[v.Int64()]
	}
	return string(buf), nil
}

// Retrieve lists the orders whose hash is in the order.FilterDTO of q.
// An empty hash list is rejected so orders cannot be enumerated.
func (i *OrderInteractor) Retrieve(ctx context.Context, q shared.ListQuery, opts ...interactor.CallOption) (any, error) {
	if len(hashesOf(q.FilterDTO)) == 0 {
		return nil, shared.NewValidationError(MsgHashesRequired, "hash__in")
	}
	return i.Interactor.Retrieve(ctx, q, opts...)
}

func (i *OrderInteractor) inTransaction(ctx context.Context, fn func(context.Context) error) error {
	if i.transactor == nil {
		return fn(ctx)
	}
	return i.transactor.InTransaction(ctx, fn)
}

func createDTO(dto any) (*order.CreateDTO, error) {
	switch v := dto.(type) {
	case *order.CreateDTO:
		if v != nil {
			return v, nil
		}
	case order.CreateDTO:
		return &v, nil
	}
	return nil, fmt.Errorf("orders.create: unexpected payload %T: %w", dto, shared.ErrInvalidInput)
}

func hashesOf(filterDTO any) []string {
	switch v := filterDTO.(type) {
	case order.FilterDTO:
		return v.Hashes
	case *order.FilterDTO:
		if v != nil {
			return v.Hashes
		}
	}
	return nil
}
