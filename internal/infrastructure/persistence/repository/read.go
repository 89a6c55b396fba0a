package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/pipeline"
)

// single runs a one-row lookup. Optional calls turn a missing or ambiguous
// row into a nil result.
func (r *Repository[M]) single(ctx context.Context, sq shared.Query, optional bool) (any, error) {
	q, err := r.filtered(ctx, sq, true)
	if err != nil {
		return nil, err
	}
	m, err := r.one(q)
	if err != nil {
		if optional && lookupMissed(err) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *Repository[M]) detail(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.Query)
	return r.single(ctx, sq, inv.Options.Optional)
}

func (r *Repository[M]) detailByPK(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	id, err := toUUID(inv.Arg(0))
	if err != nil {
		return nil, err
	}
	return r.single(ctx, shared.Where(shared.Filters{pkColumn: id}), inv.Options.Optional)
}

func (r *Repository[M]) detailByExternalCode(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	code, _ := inv.Arg(0).(string)
	codeType, _ := inv.Arg(1).(string)

	id, found, err := r.objectIDByCode(ctx, code, codeType)
	if err != nil {
		return nil, err
	}
	if !found {
		if inv.Options.Optional {
			return nil, nil
		}
		return nil, errCodeNotFound(r.table, code, codeType)
	}
	return r.single(ctx, shared.Where(shared.Filters{pkColumn: id}), inv.Options.Optional)
}

// list loads the rows of q after narrowing, optional search and paging.
func (r *Repository[M]) list(ctx context.Context, sq shared.Query, search *string, p shared.Page) ([]*M, error) {
	q, err := r.filtered(ctx, sq, true)
	if err != nil {
		return nil, err
	}
	if search != nil {
		if err := r.searchCondition(q, *search); err != nil {
			return nil, err
		}
	}
	if err := r.page(q, p); err != nil {
		return nil, err
	}
	rows := []*M{}
	if err := q.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository[M]) retrieve(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	lq, _ := inv.Arg(0).(shared.ListQuery)
	return r.list(ctx, lq.Query, nil, lq.Page)
}

func (r *Repository[M]) count(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.Query)
	q, err := r.filtered(ctx, sq, false)
	if err != nil {
		return nil, err
	}
	return r.countRows(q, false)
}

func (r *Repository[M]) search(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.SearchQuery)
	return r.list(ctx, sq.Query, &sq.Search, sq.Page)
}

func (r *Repository[M]) searchCount(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.SearchQuery)
	q, err := r.filtered(ctx, sq.Query, false)
	if err != nil {
		return nil, err
	}
	if err := r.searchCondition(q, sq.Search); err != nil {
		return nil, err
	}
	return r.countRows(q, sq.Distinct)
}

func (r *Repository[M]) exists(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.Query)
	q, err := r.filtered(ctx, sq, false)
	if err != nil {
		return nil, err
	}
	var hits []uuid.UUID
	if err := q.db.Limit(1).Pluck(r.table+"."+pkColumn, &hits).Error; err != nil {
		return nil, err
	}
	return len(hits) > 0, nil
}

func (r *Repository[M]) getByIDs(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	ids, _ := inv.Arg(0).([]uuid.UUID)
	if len(ids) == 0 {
		return []*M{}, nil
	}
	return r.list(ctx, shared.Where(shared.Filters{pkColumn + "__in": ids}), nil, shared.Page{})
}

func (r *Repository[M]) getIDs(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.Query)
	q, err := r.filtered(ctx, sq, false)
	if err != nil {
		return nil, err
	}
	if err := r.order(q, nil); err != nil {
		return nil, err
	}
	ids := []uuid.UUID{}
	if err := q.db.Pluck(r.table+"."+pkColumn, &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
