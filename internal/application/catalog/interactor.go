// Package catalog implements the category and product use cases of the
// storefront: active-only listings, product search, image URLs and cached
// reads.
package catalog

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/application/interactor"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// Cache key prefixes
const (
	CategoriesCachePrefix = "catalog:categories:"
	ProductsCachePrefix   = "catalog:products:"
)

// ImageResolver turns an image object key into a URL. media.Resolver
// implements it.
type ImageResolver interface {
	URL(ctx context.Context, key string) (string, error)
}

// Options configures the catalog interactors
type Options struct {
	Cache    Cache
	CacheTTL time.Duration
	Metrics  CacheMetrics
	Images   ImageResolver
	// Interactor holds options applied after the catalog defaults
	Interactor []interactor.Option
}

// CategoryInteractor serves category use cases.
type CategoryInteractor struct {
	*interactor.Interactor
	categories *listCache[catalog.CategoryInfoDTO]
	products   *listCache[catalog.ProductInfoDTO]
}

// NewCategoryInteractor creates the category interactor over repo.
func NewCategoryInteractor(repo catalog.CategoryRepository, opts Options) (*CategoryInteractor, error) {
	base := []interactor.Option{
		interactor.WithReturnTypes(shared.ReturnTypes{General: reflect.TypeFor[catalog.CategoryInfoDTO]()}),
		interactor.WithRequiredFields("Name"),
	}
	it, err := interactor.New("categories", repo, append(base, opts.Interactor...)...)
	if err != nil {
		return nil, err
	}
	return &CategoryInteractor{
		Interactor: it,
		categories: newListCache[catalog.CategoryInfoDTO](opts, CategoriesCachePrefix),
		products:   newListCache[catalog.ProductInfoDTO](opts, ProductsCachePrefix),
	}, nil
}

// Retrieve lists categories. Results in the default schema are cached.
func (i *CategoryInteractor) Retrieve(ctx context.Context, q shared.ListQuery, opts ...interactor.CallOption) (any, error) {
	call := interactor.NewCall(opts...)
	if i.ReturnType(ctx, shared.OpRetrieve, false, call) != reflect.TypeFor[catalog.CategoryInfoDTO]() {
		return i.Interactor.Retrieve(ctx, q, opts...)
	}
	key, err := i.categories.key(shared.OpRetrieve, q, call.IsPaginated())
	if err != nil {
		return nil, err
	}
	return i.categories.load(ctx, key, call.IsPaginated(), func(ctx context.Context) (any, error) {
		return i.Interactor.Retrieve(ctx, q, opts...)
	})
}

// Create creates a category and drops cached listings.
func (i *CategoryInteractor) Create(ctx context.Context, dto any, opts ...interactor.CallOption) (any, error) {
	id, err := i.Interactor.Create(ctx, dto, opts...)
	if err == nil {
		i.invalidate(ctx)
	}
	return id, err
}

// Update changes a category and drops cached listings.
func (i *CategoryInteractor) Update(ctx context.Context, id uuid.UUID, dto any, opts ...interactor.CallOption) (any, error) {
	out, err := i.Interactor.Update(ctx, id, dto, opts...)
	if err == nil {
		i.invalidate(ctx)
	}
	return out, err
}

// Delete deletes a category and drops cached listings.
func (i *CategoryInteractor) Delete(ctx context.Context, id uuid.UUID, opts ...interactor.CallOption) error {
	err := i.Interactor.Delete(ctx, id, opts...)
	if err == nil {
		i.invalidate(ctx)
	}
	return err
}

// invalidate drops product listings too, since they embed the category.
func (i *CategoryInteractor) invalidate(ctx context.Context) {
	i.categories.invalidate(ctx)
	i.products.invalidate(ctx)
}

// ProductInteractor serves product use cases.
type ProductInteractor struct {
	*interactor.Interactor
	images   ImageResolver
	products *listCache[catalog.ProductInfoDTO]
}

// NewProductInteractor creates the product interactor over repo.
func NewProductInteractor(repo catalog.ProductRepository, opts Options) (*ProductInteractor, error) {
	base := []interactor.Option{
		interactor.WithReturnTypes(shared.ReturnTypes{General: reflect.TypeFor[catalog.ProductInfoDTO]()}),
		interactor.WithRequiredFields("Name", "Price"),
	}
	it, err := interactor.New("products", repo, append(base, opts.Interactor...)...)
	if err != nil {
		return nil, err
	}
	return &ProductInteractor{
		Interactor: it,
		images:     opts.Images,
		products:   newListCache[catalog.ProductInfoDTO](opts, ProductsCachePrefix),
	}, nil
}

// Search lists products matching the term of q. Results in the default
// schema are cached and carry image URLs.
func (i *ProductInteractor) Search(ctx context.Context, q shared.SearchQuery, opts ...interactor.CallOption) (any, error) {
	fetch := func(ctx context.Context) (any, error) {
		out, err := i.Interactor.Search(ctx, q, opts...)
		if err != nil {
			return nil, err
		}
		return out, i.resolveImages(ctx, out)
	}

	call := interactor.NewCall(opts...)
	if i.ReturnType(ctx, shared.OpSearch, false, call) != reflect.TypeFor[catalog.ProductInfoDTO]() {
		return fetch(ctx)
	}
	key, err := i.products.key(shared.OpSearch, q, call.IsPaginated())
	if err != nil {
		return nil, err
	}
	return i.products.load(ctx, key, call.IsPaginated(), fetch)
}

// DetailByPK returns one product with its image URL.
func (i *ProductInteractor) DetailByPK(ctx context.Context, id uuid.UUID, opts ...interactor.CallOption) (any, error) {
	out, err := i.Interactor.DetailByPK(ctx, id, opts...)
	if err != nil {
		return nil, err
	}
	return out, i.resolveImages(ctx, out)
}

// Create creates a product and drops cached listings.
func (i *ProductInteractor) Create(ctx context.Context, dto any, opts ...interactor.CallOption) (any, error) {
	id, err := i.Interactor.Create(ctx, dto, opts...)
	if err == nil {
		i.products.invalidate(ctx)
	}
	return id, err
}

// Update changes a product and drops cached listings.
func (i *ProductInteractor) Update(ctx context.Context, id uuid.UUID, dto any, opts ...interactor.CallOption) (any, error) {
	out, err := i.Interactor.Update(ctx, id, dto, opts...)
	if err == nil {
		i.products.invalidate(ctx)
	}
	return out, err
}

// Delete deletes a product and drops cached listings.
func (i *ProductInteractor) Delete(ctx context.Context, id uuid.UUID, opts ...interactor.CallOption) error {
	err := i.Interactor.Delete(ctx, id, opts...)
	if err == nil {
		i.products.invalidate(ctx)
	}
	return err
}

// resolveImages fills ImageURL of every ProductInfoDTO in out.
func (i *ProductInteractor) resolveImages(ctx context.Context, out any) error {
	if i.images == nil {
		return nil
	}
	var items []any
	switch v := out.(type) {
	case shared.Paginated[any]:
		items = v.Results
	case []any:
		items = v
	default:
		items = []any{out}
	}
	for _, item := range items {
		p, ok := item.(*catalog.ProductInfoDTO)
		if !ok || p.Image == "" {
			continue
		}
		url, err := i.images.URL(ctx, p.Image)
		if err != nil {
			return err
		}
		p.ImageURL = url
	}
	return nil
}

func newListCache[T any](opts Options, prefix string) *listCache[T] {
	return &listCache[T]{
		cache:   opts.Cache,
		prefix:  prefix,
		ttl:     opts.CacheTTL,
		metrics: opts.Metrics,
	}
}
