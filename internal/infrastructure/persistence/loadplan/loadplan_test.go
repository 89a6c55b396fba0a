package loadplan

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/testutil"
)

var (
	orderModel    = reflect.TypeFor[models.OrderModel]()
	itemModel     = reflect.TypeFor[models.OrderItemModel]()
	productModel  = reflect.TypeFor[models.ProductModel]()
	categoryModel = reflect.TypeFor[models.CategoryModel]()
)

type countingReflector struct {
	inner Reflector
	calls map[reflect.Type]int
}

func newCountingReflector() *countingReflector {
	return &countingReflector{inner: NewGormReflector(nil), calls: map[reflect.Type]int{}}
}

func (r *countingReflector) Relations(model reflect.Type) (map[string]Relation, error) {
	r.calls[model]++
	return r.inner.Relations(model)
}

// orderWithItemsDTO reaches a to-many relation through a to-one relation.
type orderWithItemsDTO struct {
	ID     uuid.UUID
	Status *order.StatusInfoDTO
	Items  []order.ItemInfoDTO
}

type itemWithOrderDTO struct {
	ID    uuid.UUID
	Count int
	Order *orderWithItemsDTO
}

type renamedRelationDTO struct {
	ID    uuid.UUID
	Group *catalog.CategoryInfoDTO `relation:"Category"`
}

type ignoredRelationDTO struct {
	ID       uuid.UUID
	Category *catalog.CategoryInfoDTO `relation:"-"`
}

type unmatchedDTO struct {
	ID     uuid.UUID
	Vendor *catalog.CategoryInfoDTO
}

type wrongCardinalityDTO struct {
	ID       uuid.UUID
	Category []catalog.CategoryInfoDTO
}

type embeddedBase struct {
	ID       uuid.UUID
	Category *catalog.CategoryInfoDTO
}

type embeddingDTO struct {
	embeddedBase
	Name string
}

type declaredExtrasDTO struct {
	ID uuid.UUID
}

func (declaredExtrasDTO) ExtraSelectRelated() []string   { return []string{"Status"} }
func (declaredExtrasDTO) ExtraPrefetchRelated() []string { return []string{"Items"} }

func TestSchemaFields(t *testing.T) {
	fields, err := SchemaFields(reflect.TypeFor[order.InfoDTO]())
	require.NoError(t, err)

	byName := map[string]Field{}
	for _, f := range fields {
		byName[f.Name] = f
	}

	assert.Equal(t, reflect.TypeFor[order.StatusInfoDTO](), byName["Status"].Nested)
	assert.False(t, byName["Status"].Many)
	assert.Equal(t, reflect.TypeFor[order.ItemInfoDTO](), byName["Items"].Nested)
	assert.True(t, byName["Items"].Many)
	assert.Nil(t, byName["Total"].Nested, "decimal is a scalar")
	assert.Nil(t, byName["CreatedAt"].Nested, "time is a scalar")

	t.Run("embedded structs are flattened", func(t *testing.T) {
		fields, err := SchemaFields(reflect.TypeFor[embeddingDTO]())
		require.NoError(t, err)
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"ID", "Category", "Name"}, names)
	})

	t.Run("rejects non struct", func(t *testing.T) {
		_, err := SchemaFields(reflect.TypeFor[string]())
		assert.Error(t, err)
	})
}

func TestGormReflector_Relations(t *testing.T) {
	r := NewGormReflector(nil)

	relations, err := r.Relations(orderModel)
	require.NoError(t, err)

	require.Contains(t, relations, "Status")
	assert.Equal(t, KindSelect, relations["Status"].Kind)
	assert.Equal(t, One, relations["Status"].Cardinality)
	assert.Equal(t, reflect.TypeFor[models.OrderStatusModel](), relations["Status"].Model)

	require.Contains(t, relations, "Items")
	assert.Equal(t, KindPrefetch, relations["Items"].Kind)
	assert.Equal(t, Many, relations["Items"].Cardinality)
	assert.Equal(t, itemModel, relations["Items"].Model)

	relations, err = r.Relations(categoryModel)
	require.NoError(t, err)
	assert.Empty(t, relations)
}

func TestBuilder_Match(t *testing.T) {
	b := NewBuilder(NewGormReflector(nil))

	matched, err := b.Match(orderModel, reflect.TypeFor[order.InfoDTO]())
	require.NoError(t, err)
	require.Len(t, matched, 2)

	assert.Equal(t, MatchedRelation{
		Field:    "Status",
		Relation: "Status",
		Kind:     KindSelect,
		Model:    reflect.TypeFor[models.OrderStatusModel](),
		Nested:   reflect.TypeFor[order.StatusInfoDTO](),
	}, matched[0])
	assert.Equal(t, "Items", matched[1].Relation)
	assert.Equal(t, KindPrefetch, matched[1].Kind)

	t.Run("relation tag renames and excludes", func(t *testing.T) {
		matched, err := b.Match(productModel, reflect.TypeFor[renamedRelationDTO]())
		require.NoError(t, err)
		require.Len(t, matched, 1)
		assert.Equal(t, "Group", matched[0].Field)
		assert.Equal(t, "Category", matched[0].Relation)

		matched, err = b.Match(productModel, reflect.TypeFor[ignoredRelationDTO]())
		require.NoError(t, err)
		assert.Empty(t, matched)
	})
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(NewGormReflector(nil))

	t.Run("order with status and items", func(t *testing.T) {
		plan, err := b.Build(orderModel, reflect.TypeFor[order.InfoDTO]())
		require.NoError(t, err)

		assert.Equal(t, []string{"Status"}, plan.SelectPaths())
		prefetches := plan.Prefetches()
		require.Len(t, prefetches, 1)
		assert.Equal(t, "Items", prefetches[0].Path)
		require.NotNil(t, prefetches[0].Plan)
		assert.Equal(t, []string{"Product", "Product.Category"}, prefetches[0].Plan.SelectPaths())
		assert.Equal(t, "select=[Status] prefetch=[Items{select=[Product Product.Category] prefetch=[]}]", plan.String())
	})

	t.Run("to-one parent folds nested to-many under its path", func(t *testing.T) {
		plan, err := b.Build(itemModel, reflect.TypeFor[itemWithOrderDTO]())
		require.NoError(t, err)

		assert.Equal(t, []string{"Order", "Order.Status"}, plan.SelectPaths())
		assert.Equal(t, []string{"Order.Items"}, plan.PrefetchPaths())
		nested := plan.Prefetches()[0].Plan
		require.NotNil(t, nested)
		assert.Equal(t, []string{"Product", "Product.Category"}, nested.SelectPaths())
		assert.NotContains(t, plan.SelectPaths(), "Product")
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := b.Build(orderModel, reflect.TypeFor[order.InfoDTO]())
		require.NoError(t, err)
		second, err := b.Build(orderModel, reflect.TypeFor[order.InfoDTO]())
		require.NoError(t, err)
		assert.Equal(t, first.String(), second.String())
	})

	t.Run("flat schema yields empty plan", func(t *testing.T) {
		plan, err := b.Build(categoryModel, reflect.TypeFor[catalog.CategoryInfoDTO]())
		require.NoError(t, err)
		assert.True(t, plan.Empty())
	})

	t.Run("unmatched nested field is skipped", func(t *testing.T) {
		plan, err := b.Build(productModel, reflect.TypeFor[unmatchedDTO]())
		require.NoError(t, err)
		assert.True(t, plan.Empty())
	})
}

func TestBuilder_Strict(t *testing.T) {
	b := NewBuilder(NewGormReflector(nil), WithStrict(true))
	assert.True(t, b.Strict())

	_, err := b.Build(productModel, reflect.TypeFor[unmatchedDTO]())
	assert.True(t, errors.Is(err, ErrUnmatchedRelation))

	_, err = b.Build(productModel, reflect.TypeFor[wrongCardinalityDTO]())
	assert.True(t, errors.Is(err, ErrCardinalityMismatch))

	plan, err := b.Build(orderModel, reflect.TypeFor[order.InfoDTO]())
	require.NoError(t, err)
	assert.Equal(t, []string{"Status"}, plan.SelectPaths())
}

func TestLoadPlan_Dedupe(t *testing.T) {
	nested := NewLoadPlan().Select("Product")

	plan := NewLoadPlan().Select("Status", "Status").Prefetch("Items")
	plan.PrefetchNested("Items", nested)
	plan.Prefetch("Items")
	plan.PrefetchNested("Items", NewLoadPlan().Select("Product.Category"))

	assert.Equal(t, []string{"Status"}, plan.SelectPaths())
	require.Len(t, plan.Prefetches(), 1)
	assert.Equal(t, []string{"Product", "Product.Category"}, plan.Prefetches()[0].Plan.SelectPaths())
	assert.Equal(t, []string{"Product"}, nested.SelectPaths(), "nested plans are copied on insert")

	clone := plan.Clone()
	clone.Select("Other")
	assert.False(t, plan.HasSelect("Other"))
	assert.True(t, clone.HasSelect("Status"))
}

func TestBinder(t *testing.T) {
	t.Run("plans are built once per pair", func(t *testing.T) {
		r := newCountingReflector()
		binder := NewBinder(NewBuilder(r), orderModel)

		require.NoError(t, binder.Bind(shared.NewBinding(reflect.TypeFor[order.InfoDTO]())))
		calls := r.calls[orderModel]
		require.NoError(t, binder.Bind(shared.NewBinding(reflect.TypeFor[order.InfoDTO]())))
		assert.Equal(t, calls, r.calls[orderModel])

		plan, ok := binder.Plan(orderModel)
		require.True(t, ok)
		assert.Equal(t, []string{"Status"}, plan.SelectPaths())
	})

	t.Run("later extras are unioned into the cached plan", func(t *testing.T) {
		binder := NewBinder(NewBuilder(NewGormReflector(nil)), productModel)

		require.NoError(t, binder.Bind(shared.NewBinding(reflect.TypeFor[catalog.CategoryInfoDTO]())))
		plan, _ := binder.Plan(productModel)
		assert.True(t, plan.Empty())

		require.NoError(t, binder.Bind(shared.NewBinding(reflect.TypeFor[catalog.CategoryInfoDTO](), shared.WithExtraSelect("Category"))))
		plan, _ = binder.Plan(productModel)
		assert.Equal(t, []string{"Category"}, plan.SelectPaths())

		plan.Select("Mutated")
		again, _ := binder.Plan(productModel)
		assert.False(t, again.HasSelect("Mutated"))
	})

	t.Run("schema declared extras", func(t *testing.T) {
		binder := NewBinder(NewBuilder(NewGormReflector(nil)), orderModel)
		require.NoError(t, binder.Bind(shared.NewBinding(reflect.TypeFor[declaredExtrasDTO]())))

		plan, ok := binder.Plan(orderModel)
		require.True(t, ok)
		assert.Equal(t, []string{"Status"}, plan.SelectPaths())
		assert.Equal(t, []string{"Items"}, plan.PrefetchPaths())
	})

	t.Run("other models and unbinding", func(t *testing.T) {
		binder := NewBinder(NewBuilder(NewGormReflector(nil)), orderModel)
		require.NoError(t, binder.Bind(shared.NewBinding(
			reflect.TypeFor[order.InfoDTO](),
			shared.WithOther(productModel, reflect.TypeFor[catalog.ProductInfoDTO]()),
		)))

		assert.Equal(t, reflect.TypeFor[catalog.ProductInfoDTO](), binder.Schema(productModel))
		plan, ok := binder.Plan(productModel)
		require.True(t, ok)
		assert.Equal(t, []string{"Category"}, plan.SelectPaths())

		require.NoError(t, binder.Bind(shared.Binding{}))
		_, ok = binder.Plan(orderModel)
		assert.False(t, ok)
		_, ok = binder.Plan(productModel)
		assert.True(t, ok)

		binder.Clean()
		_, ok = binder.Plan(productModel)
		assert.False(t, ok)
	})

	t.Run("strict errors surface on bind", func(t *testing.T) {
		binder := NewBinder(NewBuilder(NewGormReflector(nil), WithStrict(true)), productModel)
		err := binder.Bind(shared.NewBinding(reflect.TypeFor[unmatchedDTO]()))
		assert.ErrorIs(t, err, ErrUnmatchedRelation)
		assert.Nil(t, binder.Schema(productModel))
	})
}

func TestLoadPlan_Apply(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.Seed(t, db)
	seeded := testutil.SeedOrder(t, db, fx.NewStatus, "1:abc", fx.Tea, fx.Chips)

	plan, err := NewBuilder(NewGormReflector(nil)).Build(orderModel, reflect.TypeFor[order.InfoDTO]())
	require.NoError(t, err)

	var got models.OrderModel
	require.NoError(t, plan.Apply(db.Model(&models.OrderModel{})).Where("orders.id = ?", seeded.ID).First(&got).Error)

	require.NotNil(t, got.Status)
	assert.Equal(t, "New", got.Status.Name)
	require.Len(t, got.Items, 2)
	for _, item := range got.Items {
		require.NotNil(t, item.Product)
		require.NotNil(t, item.Product.Category)
	}
}
