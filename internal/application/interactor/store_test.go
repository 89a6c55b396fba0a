package interactor

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/convert"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/testutil"
)

func newProductInteractor(t *testing.T, opts ...Option) (*Interactor, *testutil.Fixture) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	repos := persistence.NewRepositories(persistence.NewDatabaseFromDB(db).Store())

	products, err := repos.Products()
	require.NoError(t, err)
	opts = append([]Option{
		WithReturnTypes(shared.ReturnTypes{General: reflect.TypeFor[catalog.ProductInfoDTO]()}),
		WithTransactor(repos.Store()),
	}, opts...)
	i, err := New("products", products, opts...)
	require.NoError(t, err)
	return i, fx
}

func TestStore_SearchPage(t *testing.T) {
	i, _ := newProductInteractor(t)

	out, err := i.Search(context.Background(), shared.SearchQuery{
		Search: "tea",
		Page:   shared.Page{Limit: 1, Offset: 1},
	})
	require.NoError(t, err)

	page, ok := out.(shared.Paginated[any])
	require.True(t, ok)
	assert.Equal(t, int64(2), page.Count)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.MaxPages)
	require.Len(t, page.Results, 1)

	product, err := convert.As[catalog.ProductInfoDTO](page.Results[0])
	require.NoError(t, err)
	assert.Equal(t, "Coffee", product.Name)
	assert.Equal(t, catalog.DefaultCurrency, product.Currency)
}

func TestStore_RetrieveFiltered(t *testing.T) {
	i, fx := newProductInteractor(t)

	out, err := i.Retrieve(context.Background(), shared.ListQuery{
		Query: shared.Query{
			Filters:   shared.Filters{"is_active": true},
			FilterDTO: catalog.ProductSearchDTO{CategoryID: &fx.Drinks.ID},
		},
	}, Paginated(false), WithReturnType(reflect.TypeFor[catalog.Product]()))
	require.NoError(t, err)

	products, err := convert.AsSlice[catalog.Product](out)
	require.NoError(t, err)
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Green Tea", "Coffee"}, names)
}

func TestStore_CreateWithExternalCode(t *testing.T) {
	i, fx := newProductInteractor(t, WithRequiredFields("category_id"))
	ctx := context.Background()

	_, err := i.Create(ctx, &catalog.ProductCreateDTO{Name: "Matcha", Price: decimal.RequireFromString("12.00")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	id, err := i.Create(ctx, &catalog.ProductCreateDTO{
		Name:       "Matcha",
		IsActive:   true,
		CategoryID: &fx.Drinks.ID,
		Price:      decimal.RequireFromString("12.00"),
	}, WithOptions(shared.WithExternalCode("SKU-42", "erp")))
	require.NoError(t, err)

	out, err := i.DetailByExternalCode(ctx, "SKU-42", "erp")
	require.NoError(t, err)
	product, err := convert.As[catalog.ProductInfoDTO](out)
	require.NoError(t, err)
	assert.Equal(t, id, product.ID)
	assert.Equal(t, "Matcha", product.Name)
	require.NotNil(t, product.Category)
	assert.Equal(t, "Drinks", product.Category.Name)
}

func TestStore_UpdateLockedPrice(t *testing.T) {
	i, fx := newProductInteractor(t, WithLockedFields("Price"))
	ctx := context.Background()

	samePrice := decimal.RequireFromString("10.5")
	name := "Sencha"
	_, err := i.Update(ctx, fx.Tea.ID, &catalog.ProductUpdateDTO{ID: fx.Tea.ID, Name: &name, Price: &samePrice})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("11.00")
	_, err = i.Update(ctx, fx.Tea.ID, &catalog.ProductUpdateDTO{ID: fx.Tea.ID, Price: &newPrice})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Price"}, verr.Items[0].Loc)

	out, err := i.DetailByPK(ctx, fx.Tea.ID)
	require.NoError(t, err)
	product, err := convert.As[catalog.ProductInfoDTO](out)
	require.NoError(t, err)
	assert.Equal(t, "Sencha", product.Name)
	assert.True(t, product.Price.Equal(samePrice))
}

func TestStore_DeleteMissing(t *testing.T) {
	i, fx := newProductInteractor(t)
	ctx := context.Background()

	require.NoError(t, i.Delete(ctx, fx.Chips.ID))
	_, err := i.DetailByPK(ctx, fx.Chips.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = i.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestStore_PatchListCategories(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	repos := persistence.NewRepositories(persistence.NewDatabaseFromDB(db).Store())
	categories, err := repos.Categories()
	require.NoError(t, err)
	i, err := New("categories", categories, WithTransactor(repos.Store()))
	require.NoError(t, err)

	err = i.PatchList(context.Background(), map[string]any{
		"items": []any{
			map[string]any{"id": fx.Snacks.ID.String(), "delete": true},
			map[string]any{"name": "Bakery", "is_active": true},
		},
	}, nil, nil)
	require.NoError(t, err)

	var rows []models.CategoryModel
	require.NoError(t, db.Order("name").Find(&rows).Error)
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Bakery", "Drinks"}, names)

	var products int64
	require.NoError(t, db.Model(&models.ProductModel{}).Count(&products).Error)
	assert.Equal(t, int64(len(fx.Products())), products)
}

func TestStore_PatchListProducts(t *testing.T) {
	i, fx := newProductInteractor(t)
	ctx := context.Background()

	err := i.PatchList(ctx, map[string]any{
		"Items": []any{
			map[string]any{"ID": fx.Cocoa.ID, "Delete": true},
			map[string]any{"id": fx.Tea.ID.String(), "name": "Sencha"},
			map[string]any{"name": "Matcha", "price": "12.00", "category_id": fx.Drinks.ID.String(), "is_active": true},
		},
	}, nil, nil)
	require.NoError(t, err)

	_, err = i.DetailByPK(ctx, fx.Cocoa.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	out, err := i.DetailByPK(ctx, fx.Tea.ID)
	require.NoError(t, err)
	tea, err := convert.As[catalog.ProductInfoDTO](out)
	require.NoError(t, err)
	assert.Equal(t, "Sencha", tea.Name)

	for _, id := range []uuid.UUID{fx.Coffee.ID, fx.Chips.ID} {
		_, err := i.DetailByPK(ctx, id)
		assert.NoError(t, err)
	}

	out, err = i.Search(ctx, shared.SearchQuery{Search: "matcha"}, Paginated(false))
	require.NoError(t, err)
	found, err := convert.AsSlice[catalog.ProductInfoDTO](out)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, decimal.RequireFromString("12.00").Equal(found[0].Price))
	require.NotNil(t, found[0].Category)
	assert.Equal(t, "Drinks", found[0].Category.Name)
}
