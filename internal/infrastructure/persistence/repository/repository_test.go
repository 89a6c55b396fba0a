package repository_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/loadplan"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/infrastructure/persistence/pipeline"
	"github.com/storefront/backend/internal/infrastructure/persistence/repository"
	"github.com/storefront/backend/internal/testutil"
)

var errBoom = errors.New("boom")

type principalKey struct{}

func principal(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(principalKey{}).(uuid.UUID)
	return id, ok
}

type env struct {
	store    *repository.Store
	fx       *testutil.Fixture
	products *repository.Repository[models.ProductModel]
}

func setup(t *testing.T, opts ...repository.Option) *env {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	store := repository.NewStore(db)

	opts = append([]repository.Option{
		repository.WithSearchFields("name", "description"),
		repository.WithPrincipal(principal),
	}, opts...)
	products, err := repository.New[models.ProductModel](store, reflect.TypeFor[catalog.Product](), opts...)
	require.NoError(t, err)
	return &env{store: store, fx: fx, products: products}
}

func names(t *testing.T, out any) []string {
	t.Helper()
	items, ok := out.([]any)
	require.True(t, ok, "unexpected result %T", out)
	result := make([]string, 0, len(items))
	for _, item := range items {
		p, ok := item.(*catalog.Product)
		require.True(t, ok, "unexpected item %T", item)
		result = append(result, p.Name)
	}
	return result
}

func strPtr(s string) *string { return &s }

func TestNew_RequiresStore(t *testing.T) {
	_, err := repository.New[models.ProductModel](nil, reflect.TypeFor[catalog.Product]())
	var cfgErr *shared.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "products", cfgErr.Component)
}

func TestNew_RegistersEveryOperation(t *testing.T) {
	e := setup(t)
	assert.Equal(t, "products", e.products.Component())
	assert.Equal(t, "products", e.products.Table())
	assert.Len(t, e.products.Operations(), 19)
	assert.True(t, e.products.Registry().Finalized())
}

func TestCreate_ThenDetailByPK(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	out, err := e.products.Create(ctx, catalog.ProductCreateDTO{
		Name:       "Black Tea",
		IsActive:   true,
		CategoryID: &e.fx.Drinks.ID,
		Price:      decimal.RequireFromString("12.40"),
	})
	require.NoError(t, err)
	id, ok := out.(uuid.UUID)
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, id)

	got, err := e.products.DetailByPK(ctx, id)
	require.NoError(t, err)
	p, ok := got.(*catalog.Product)
	require.True(t, ok)
	assert.Equal(t, "Black Tea", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.40")))
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, e.fx.Drinks.ID, *p.CategoryID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestCreate_StampsPrincipal(t *testing.T) {
	e := setup(t)
	user := uuid.New()
	ctx := context.WithValue(context.Background(), principalKey{}, user)

	out, err := e.products.Create(ctx, map[string]any{"name": "Mint", "price": "1.00"})
	require.NoError(t, err)

	got, err := e.products.DetailByPK(context.Background(), out.(uuid.UUID))
	require.NoError(t, err)
	p := got.(*catalog.Product)
	require.NotNil(t, p.UpdatedByID)
	assert.Equal(t, user, *p.UpdatedByID)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(1)))
}

func TestDetail_NotFoundAndOptional(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	q := shared.Where(shared.Filters{"name": "Lemonade"})

	_, err := e.products.Detail(ctx, q)
	require.ErrorIs(t, err, shared.ErrNotFound)

	var redirected *pipeline.RedirectedError
	require.ErrorAs(t, err, &redirected)

	got, err := e.products.Detail(ctx, q, shared.Optional())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDetail_MultipleResults(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	q := shared.Where(shared.Filters{"category__name": "Drinks"})

	_, err := e.products.Detail(ctx, q)
	require.ErrorIs(t, err, shared.ErrMultipleResults)

	got, err := e.products.Detail(ctx, q, shared.Optional())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDetail_RelationFilter(t *testing.T) {
	e := setup(t)

	got, err := e.products.Detail(context.Background(), shared.Where(shared.Filters{"category__name": "Snacks"}))
	require.NoError(t, err)
	assert.Equal(t, "Chips", got.(*catalog.Product).Name)
}

func TestDetail_ResultModes(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	q := shared.Where(shared.Filters{"id": e.fx.Tea.ID})

	raw, err := e.products.Detail(ctx, q, shared.WithMode(shared.ModeOriginal))
	require.NoError(t, err)
	assert.IsType(t, &models.ProductModel{}, raw)

	entity, err := e.products.Detail(ctx, q, shared.WithMode(shared.ModeEntity))
	require.NoError(t, err)
	assert.IsType(t, &catalog.Product{}, entity)

	e.products.WithDTO(reflect.TypeFor[catalog.ProductInfoDTO]())
	defer e.products.CleanDTOContext()

	entity, err = e.products.Detail(ctx, q, shared.WithMode(shared.ModeEntity))
	require.NoError(t, err)
	assert.IsType(t, &catalog.Product{}, entity)

	full, err := e.products.Detail(ctx, q)
	require.NoError(t, err)
	dto, ok := full.(*catalog.ProductInfoDTO)
	require.True(t, ok)
	assert.Equal(t, "Green Tea", dto.Name)
	assert.Equal(t, catalog.DefaultCurrency, dto.Currency)
	require.NotNil(t, dto.Category)
	assert.Equal(t, "Drinks", dto.Category.Name)
}

type vendorDTO struct {
	ID     uuid.UUID
	Vendor *catalog.CategoryInfoDTO
}

func TestWithDTO_StrictBindingError(t *testing.T) {
	e := setup(t, repository.WithStrict(true))
	ctx := context.Background()

	e.products.WithDTO(reflect.TypeFor[vendorDTO]())
	_, err := e.products.Count(ctx, shared.Query{})
	require.ErrorIs(t, err, loadplan.ErrUnmatchedRelation)

	e.products.CleanDTOContext()
	n, err := e.products.Count(ctx, shared.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestWithDTO_PermissiveSkipsUnmatched(t *testing.T) {
	e := setup(t)
	e.products.WithDTO(reflect.TypeFor[vendorDTO]())
	defer e.products.CleanDTOContext()

	n, err := e.products.Count(context.Background(), shared.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestRetrieve_FilterOrderAndPage(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	out, err := e.products.Retrieve(ctx, shared.ListQuery{
		Query: shared.Where(shared.Filters{"is_active": true}),
		Page:  shared.Page{OrderBy: []string{"-price"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Coffee", "Green Tea", "Chips"}, names(t, out))

	out, err = e.products.Retrieve(ctx, shared.ListQuery{Page: shared.Page{Limit: 2, Offset: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Coffee", "Cocoa"}, names(t, out))

	n, err := e.products.Count(ctx, shared.Where(shared.Filters{"price__gte": 10}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRetrieve_FilterDTO(t *testing.T) {
	e := setup(t)

	out, err := e.products.Retrieve(context.Background(), shared.ListQuery{
		Query: shared.Query{FilterDTO: catalog.ProductSearchDTO{CategoryID: &e.fx.Snacks.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chips"}, names(t, out))
}

func TestRetrieve_OrderByMapping(t *testing.T) {
	e := setup(t, repository.WithOrderByMapping(map[string]string{"cheapest": "price", "newest": "-created_at"}))
	ctx := context.Background()

	out, err := e.products.Retrieve(ctx, shared.ListQuery{Page: shared.Page{OrderBy: []string{"cheapest"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chips", "Cocoa", "Green Tea", "Coffee"}, names(t, out))

	out, err = e.products.Retrieve(ctx, shared.ListQuery{Page: shared.Page{OrderBy: []string{"newest"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chips", "Cocoa", "Coffee", "Green Tea"}, names(t, out))
}

func TestSearch(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	out, err := e.products.Search(ctx, shared.SearchQuery{Search: "tea"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Green Tea", "Coffee"}, names(t, out))

	out, err = e.products.Search(ctx, shared.SearchQuery{Search: "tea", Page: shared.Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Coffee"}, names(t, out))

	n, err := e.products.SearchCount(ctx, shared.SearchQuery{Search: "TEA"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSearch_IgnoresWhitespaceAndQuotes(t *testing.T) {
	e := setup(t)

	out, err := e.products.Search(context.Background(), shared.SearchQuery{Search: "green 'tea'"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Green Tea"}, names(t, out))
}

func TestSearch_EscapesWildcards(t *testing.T) {
	e := setup(t)

	n, err := e.products.SearchCount(context.Background(), shared.SearchQuery{Search: "%"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSearch_CombinedWithFilters(t *testing.T) {
	e := setup(t)

	n, err := e.products.SearchCount(context.Background(), shared.SearchQuery{
		Search: "tea",
		Query:  shared.Where(shared.Filters{"name__icontains": "coffee"}),
		Page:   shared.Page{Distinct: true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExistsAndIDs(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	ok, err := e.products.Exists(ctx, shared.Where(shared.Filters{"name": "Cocoa"}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.products.Exists(ctx, shared.Where(shared.Filters{"name": "Lemonade"}))
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := e.products.GetIDs(ctx, shared.Where(shared.Filters{"is_active": true}))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{e.fx.Tea.ID, e.fx.Coffee.ID, e.fx.Chips.ID}, ids)

	out, err := e.products.GetByIDs(ctx, []uuid.UUID{e.fx.Chips.ID, e.fx.Tea.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Green Tea", "Chips"}, names(t, out))
}

func TestUpdate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	out, err := e.products.Update(ctx, catalog.ProductUpdateDTO{ID: e.fx.Tea.ID, Name: strPtr("Matcha")})
	require.NoError(t, err)
	assert.Equal(t, e.fx.Tea.ID, out)

	got, err := e.products.DetailByPK(ctx, e.fx.Tea.ID)
	require.NoError(t, err)
	p := got.(*catalog.Product)
	assert.Equal(t, "Matcha", p.Name)
	assert.Equal(t, "Loose leaf tea", p.Description)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("10.50")))
}

func TestUpdate_Errors(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.products.Update(ctx, catalog.ProductUpdateDTO{ID: uuid.New(), Name: strPtr("Ghost")})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = e.products.Update(ctx, map[string]any{"name": "No id"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"id"}, verr.Items[0].Loc)
}

func TestMultiUpdate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	n, err := e.products.MultiUpdate(ctx, shared.Where(shared.Filters{"category__name": "Drinks"}), map[string]any{"is_active": false})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	active, err := e.products.Count(ctx, shared.Where(shared.Filters{"is_active": true}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	n, err = e.products.MultiUpdate(ctx, shared.Where(shared.Filters{"name": "Lemonade"}), map[string]any{"is_active": true})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkCreateUpdateDelete(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	out, err := e.products.BulkCreate(ctx, []any{
		catalog.ProductCreateDTO{Name: "Pretzels", Price: decimal.NewFromInt(2)},
		map[string]any{"name": "Nuts", "price": decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	ids := out.([]uuid.UUID)
	require.Len(t, ids, 2)

	out, err = e.products.BulkUpdate(ctx, []any{
		map[string]any{"id": ids[0], "is_active": true},
		map[string]any{"ID": ids[1].String(), "is_active": true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out)

	n, err := e.products.Count(ctx, shared.Where(shared.Filters{"id__in": ids, "is_active": true}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = e.products.BulkDelete(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = e.products.Count(ctx, shared.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestDelete(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	require.NoError(t, e.products.Delete(ctx, e.fx.Cocoa.ID))
	_, err := e.products.DetailByPK(ctx, e.fx.Cocoa.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	err = e.products.Delete(ctx, e.fx.Cocoa.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.NoError(t, e.products.Delete(ctx, e.fx.Cocoa.ID, shared.Optional()))
}

func TestExternalCodes(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	out, err := e.products.Create(ctx, catalog.ProductCreateDTO{Name: "Rooibos", Price: decimal.NewFromInt(9)},
		shared.WithExternalCode("SKU-1", "erp"))
	require.NoError(t, err)
	id := out.(uuid.UUID)

	got, err := e.products.DetailByExternalCode(ctx, "SKU-1", "erp")
	require.NoError(t, err)
	assert.Equal(t, id, got.(*catalog.Product).ID)

	_, err = e.products.DetailByExternalCode(ctx, "SKU-1", "pos")
	require.ErrorIs(t, err, shared.ErrNotFound)

	got, err = e.products.DetailByExternalCode(ctx, "SKU-2", "erp", shared.Optional())
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, e.products.Delete(ctx, id))
	got, err = e.products.DetailByExternalCode(ctx, "SKU-1", "erp", shared.Optional())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateOrCreate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	out, err := e.products.UpdateOrCreate(ctx, shared.Where(shared.Filters{"name": "Chips"}),
		map[string]any{"price": decimal.NewFromInt(4)})
	require.NoError(t, err)
	res := out.(*shared.OrCreateResult)
	assert.False(t, res.Created)
	assert.Equal(t, e.fx.Chips.ID, res.Object)

	got, err := e.products.DetailByPK(ctx, e.fx.Chips.ID)
	require.NoError(t, err)
	assert.True(t, got.(*catalog.Product).Price.Equal(decimal.NewFromInt(4)))

	out, err = e.products.UpdateOrCreate(ctx, shared.Where(shared.Filters{"name": "Pretzels", "price__gt": 0}),
		map[string]any{"price": decimal.NewFromInt(2), "is_active": true})
	require.NoError(t, err)
	res = out.(*shared.OrCreateResult)
	assert.True(t, res.Created)

	got, err = e.products.DetailByPK(ctx, res.Object.(uuid.UUID))
	require.NoError(t, err)
	p := got.(*catalog.Product)
	assert.Equal(t, "Pretzels", p.Name)
	assert.True(t, p.IsActive)
}

func TestUpdateOrCreate_ByExternalCode(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	out, err := e.products.UpdateOrCreate(ctx, shared.Where(shared.Filters{"name": "Kvass"}),
		map[string]any{"price": decimal.NewFromInt(3)}, shared.WithExternalCode("K-1", "erp"))
	require.NoError(t, err)
	first := out.(*shared.OrCreateResult)
	require.True(t, first.Created)

	// the code wins over the lookup, so a renamed row is still found
	out, err = e.products.UpdateOrCreate(ctx, shared.Where(shared.Filters{"name": "Kvass Light"}),
		map[string]any{"name": "Kvass Light"}, shared.WithExternalCode("K-1", "erp"))
	require.NoError(t, err)
	second := out.(*shared.OrCreateResult)
	assert.False(t, second.Created)
	assert.Equal(t, first.Object, second.Object)
}

func TestDetailOrCreate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	statuses, err := repository.New[models.OrderStatusModel](e.store, reflect.TypeFor[order.Status]())
	require.NoError(t, err)

	res, err := statuses.DetailOrCreate(ctx, shared.Where(shared.Filters{"is_default": true}), nil)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "New", res.Object.(*order.Status).Name)

	res, err = statuses.DetailOrCreate(ctx, shared.Where(shared.Filters{"name": "Cancelled"}),
		map[string]any{"is_completed": true})
	require.NoError(t, err)
	assert.True(t, res.Created)
	st := res.Object.(*order.Status)
	assert.Equal(t, "Cancelled", st.Name)
	assert.True(t, st.IsCompleted)

	res, err = statuses.DetailOrCreate(ctx, shared.Where(shared.Filters{"name": "Cancelled"}), nil,
		shared.WithMode(shared.ModeOriginal))
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.IsType(t, &models.OrderStatusModel{}, res.Object)
}

func TestInTransaction_RollsBack(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	err := e.store.InTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, repository.InTransaction(ctx))
		if _, err := e.products.Create(ctx, map[string]any{"name": "Ghost", "price": 1}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	ok, err := e.products.Exists(ctx, shared.Where(shared.Filters{"name": "Ghost"}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInTransaction_NestedSavepoint(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	err := e.store.InTransaction(ctx, func(ctx context.Context) error {
		if _, err := e.products.Create(ctx, map[string]any{"name": "Kept", "price": 1}); err != nil {
			return err
		}
		inner := e.store.InTransaction(ctx, func(ctx context.Context) error {
			if _, err := e.products.Create(ctx, map[string]any{"name": "Dropped", "price": 1}); err != nil {
				return err
			}
			return errBoom
		})
		require.ErrorIs(t, inner, errBoom)
		return nil
	})
	require.NoError(t, err)

	kept, err := e.products.Exists(ctx, shared.Where(shared.Filters{"name": "Kept"}))
	require.NoError(t, err)
	assert.True(t, kept)
	dropped, err := e.products.Exists(ctx, shared.Where(shared.Filters{"name": "Dropped"}))
	require.NoError(t, err)
	assert.False(t, dropped)
}

func TestCapabilities(t *testing.T) {
	e := setup(t, repository.WithCapabilities(shared.OpDetail, shared.OpCount))
	ctx := context.Background()

	assert.Equal(t, []string{shared.OpCount, shared.OpDetail}, e.products.Operations())
	_, err := e.products.Create(ctx, map[string]any{"name": "x"})
	require.ErrorIs(t, err, shared.ErrUnsupported)
}

func TestOperationOverride(t *testing.T) {
	e := setup(t, repository.WithOperations(pipeline.Operation{
		Name: shared.OpCount,
		Handler: func(context.Context, *pipeline.Invocation) (any, error) {
			return int64(42), nil
		},
	}))

	n, err := e.products.Count(context.Background(), shared.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

type recorder struct {
	ops  []string
	errs []error
}

func (r *recorder) RecordOperation(_ context.Context, component, op string, err error, _ float64) {
	r.ops = append(r.ops, component+"."+op)
	r.errs = append(r.errs, err)
}

func TestRecorderAndRedirects(t *testing.T) {
	errGone := shared.NewDomainError("GONE", "gone")
	rec := &recorder{}
	e := setup(t,
		repository.WithComponent("catalog.products"),
		repository.WithRecorder(rec),
		repository.WithRedirects(pipeline.RedirectOn(gorm.ErrRecordNotFound, errGone)),
	)

	_, err := e.products.DetailByPK(context.Background(), uuid.New())
	require.ErrorIs(t, err, errGone)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, []string{"catalog.products.detail_by_pk"}, rec.ops)
	assert.ErrorIs(t, rec.errs[0], errGone)
}

func TestOrderLoadPlan(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	placed := testutil.SeedOrder(t, e.store.Unscoped(), e.fx.NewStatus, "1:abcdefghijklmnop", e.fx.Tea, e.fx.Chips)

	orders, err := repository.New[models.OrderModel](e.store, reflect.TypeFor[order.Order]())
	require.NoError(t, err)
	orders.WithDTO(reflect.TypeFor[order.InfoDTO]())
	defer orders.CleanDTOContext()

	plan, ok := orders.Plan(reflect.TypeFor[models.OrderModel]())
	require.True(t, ok)
	assert.True(t, plan.HasSelect("Status"))

	got, err := orders.DetailByPK(ctx, placed.ID)
	require.NoError(t, err)
	info, ok := got.(*order.InfoDTO)
	require.True(t, ok)
	require.NotNil(t, info.Status)
	assert.Equal(t, "New", info.Status.Name)
	require.Len(t, info.Items, 2)

	products := map[string]bool{}
	for _, item := range info.Items {
		require.NotNil(t, item.Product)
		products[item.Product.Name] = true
	}
	assert.Equal(t, map[string]bool{"Green Tea": true, "Chips": true}, products)
	assert.True(t, info.Total.Equal(decimal.RequireFromString("27.50")))
}
