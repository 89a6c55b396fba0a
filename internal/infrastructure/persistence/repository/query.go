package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/filter"
)

// baseReplaces are stripped from both sides of a search.
var baseReplaces = map[string]string{
	" ":  "",
	"'":  "",
	"\"": "",
	"\t": "",
	"\n": "",
	"\\": "",
}

// query is a statement under construction together with the relation joins
// it already carries, so joins needed by filters and ordering are added once.
type query struct {
	db     *gorm.DB
	joined map[string]bool
}

func (q *query) join(path string) {
	if path == "" || q.joined[path] {
		return
	}
	q.db = q.db.Joins(path)
	q.joined[path] = true
}

// base starts a statement on M. With load set the bound plan is applied.
func (r *Repository[M]) base(ctx context.Context, load bool) (*query, error) {
	if r.bindErr != nil {
		return nil, r.bindErr
	}
	q := &query{
		db:     r.store.DB(ctx).Model(new(M)),
		joined: map[string]bool{},
	}
	if !load {
		return q, nil
	}
	if plan, ok := r.binder.Plan(r.model); ok {
		q.db = plan.Apply(q.db)
		for _, path := range plan.SelectPaths() {
			q.joined[path] = true
		}
	}
	return q, nil
}

// filtered starts a statement on M narrowed by sq.
func (r *Repository[M]) filtered(ctx context.Context, sq shared.Query, load bool) (*query, error) {
	q, err := r.base(ctx, load)
	if err != nil {
		return nil, err
	}
	if err := r.where(q, sq); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *Repository[M]) where(q *query, sq shared.Query) error {
	filters, err := filter.FromQuery(sq)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return nil
	}
	node, err := filter.Compile("", filters)
	if err != nil {
		return err
	}
	rendered, err := r.renderer.Render(node)
	if err != nil {
		return err
	}
	for _, path := range rendered.Joins {
		q.join(path)
	}
	if rendered.Expr != nil {
		q.db = q.db.Where(rendered.Expr)
	}
	return nil
}

// page applies distinct, ordering, offset and limit.
func (r *Repository[M]) page(q *query, p shared.Page) error {
	if p.Distinct {
		q.db = q.db.Distinct()
	}
	if err := r.order(q, p.OrderBy); err != nil {
		return err
	}
	if p.Offset > 0 {
		q.db = q.db.Offset(p.Offset)
	}
	if p.Limit > 0 {
		q.db = q.db.Limit(p.Limit)
	}
	return nil
}

// order sorts by fields, "-" marking descending order. Public names are
// renamed through the order-by mapping first.
func (r *Repository[M]) order(q *query, fields []string) error {
	if len(fields) == 0 {
		fields = r.cfg.defaultOrder
	}
	for _, field := range fields {
		desc := strings.HasPrefix(field, "-")
		name := strings.TrimPrefix(field, "-")
		if mapped, ok := r.cfg.orderBy[name]; ok {
			if strings.HasPrefix(mapped, "-") {
				desc = !desc
			}
			name = strings.TrimPrefix(mapped, "-")
		}
		col, join, err := r.renderer.Column(name)
		if err != nil {
			return fmt.Errorf("order by %q: %w", field, err)
		}
		q.join(join)
		q.db = q.db.Order(clause.OrderByColumn{Column: col, Desc: desc})
	}
	return nil
}

// searchCondition matches term as a substring of the configured fields,
// concatenated, lowercased and stripped of whitespace and quotes.
func (r *Repository[M]) searchCondition(q *query, term string) error {
	if len(r.cfg.searchFields) == 0 {
		return nil
	}

	replaces := make(map[string]string, len(baseReplaces)+len(r.cfg.searchReplaces))
	for k, v := range baseReplaces {
		replaces[k] = v
	}
	for k, v := range r.cfg.searchReplaces {
		replaces[k] = v
	}
	olds := make([]string, 0, len(replaces))
	for old := range replaces {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	term = strings.Join(strings.Fields(term), "")
	for _, old := range olds {
		term = strings.ReplaceAll(term, old, replaces[old])
	}

	parts := make([]string, 0, len(r.cfg.searchFields))
	vars := make([]any, 0, len(r.cfg.searchFields)+2*len(olds)+1)
	for _, field := range r.cfg.searchFields {
		col, join, err := r.renderer.Column(field)
		if err != nil {
			return fmt.Errorf("search field %q: %w", field, err)
		}
		q.join(join)
		parts = append(parts, "COALESCE(CAST(? AS TEXT), '')")
		vars = append(vars, col)
	}

	expr := strings.Join(parts, " || ")
	for _, old := range olds {
		expr = "REPLACE(" + expr + ", ?, ?)"
		vars = append(vars, old, replaces[old])
	}
	vars = append(vars, "%"+filter.EscapeLike(term)+"%")

	q.db = q.db.Where(clause.Expr{SQL: "LOWER(" + expr + ") LIKE LOWER(?) ESCAPE '!'", Vars: vars})
	return nil
}

// count counts the rows of q, each primary key once when distinct is set.
func (r *Repository[M]) countRows(q *query, distinct bool) (int64, error) {
	db := q.db
	if distinct {
		db = db.Distinct(r.table + "." + pkColumn)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// one loads the single row of q. No row is gorm.ErrRecordNotFound and more
// than one is ErrMultipleRecords.
func (r *Repository[M]) one(q *query) (*M, error) {
	var rows []*M
	if err := q.db.Limit(2).Find(&rows).Error; err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, gorm.ErrRecordNotFound
	case 1:
		return rows[0], nil
	default:
		return nil, ErrMultipleRecords
	}
}
