package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/pipeline"
)

func (r *Repository[M]) create(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	values, err := shared.Values(inv.Arg(0))
	if err != nil {
		return nil, err
	}
	m, err := r.insert(ctx, values)
	if err != nil {
		return nil, err
	}
	id := (*m).GetID()
	if err := r.saveExternalCode(ctx, id, inv.Options); err != nil {
		return nil, err
	}
	return id, nil
}

// insert creates one row from values, stamped with the acting principal.
func (r *Repository[M]) insert(ctx context.Context, values map[string]any) (*M, error) {
	r.stamp(ctx, values, true)
	m, err := r.newModel(values)
	if err != nil {
		return nil, err
	}
	if err := r.store.DB(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository[M]) bulkCreate(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	entities, _ := inv.Arg(0).([]any)
	if len(entities) == 0 {
		return []uuid.UUID{}, nil
	}

	rows := make([]*M, 0, len(entities))
	for i, entity := range entities {
		values, err := shared.Values(entity)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		r.stamp(ctx, values, true)
		m, err := r.newModel(values)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		rows = append(rows, m)
	}
	if err := r.store.DB(ctx).Omit(clause.Associations).Create(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i, m := range rows {
		ids[i] = (*m).GetID()
	}
	return ids, nil
}

func (r *Repository[M]) update(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	values, err := shared.Values(inv.Arg(0))
	if err != nil {
		return nil, err
	}
	id, err := popID(values)
	if err != nil {
		return nil, err
	}

	db := r.store.DB(ctx)
	m := new(M)
	if err := db.First(m, pkColumn+" = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.apply(ctx, db.Model(m), values); err != nil {
		return nil, err
	}
	return id, nil
}

// apply writes values through db, stamped with the acting principal.
// Nothing is written when no column changes.
func (r *Repository[M]) apply(ctx context.Context, db *gorm.DB, values map[string]any) error {
	r.stamp(ctx, values, false)
	cols := r.columns(values)
	if len(cols) == 0 {
		return nil
	}
	return db.Omit(clause.Associations).Updates(cols).Error
}

func (r *Repository[M]) multiUpdate(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.Query)
	values, err := shared.Values(inv.Arg(1))
	if err != nil {
		return nil, err
	}
	r.stamp(ctx, values, false)
	cols := r.columns(values)
	if len(cols) == 0 {
		return int64(0), nil
	}

	q, err := r.filtered(ctx, sq, false)
	if err != nil {
		return nil, err
	}
	// resolved first so relation joins of the filter stay out of the UPDATE
	var ids []uuid.UUID
	if err := q.db.Pluck(r.table+"."+pkColumn, &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return int64(0), nil
	}
	res := r.store.DB(ctx).Model(new(M)).Where(pkColumn+" IN ?", ids).Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	return res.RowsAffected, nil
}

func (r *Repository[M]) bulkUpdate(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	entities, _ := inv.Arg(0).([]any)
	db := r.store.DB(ctx)

	var changed int64
	for i, entity := range entities {
		values, err := shared.Values(entity)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		id, err := popID(values)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		r.stamp(ctx, values, false)
		cols := r.columns(values)
		if len(cols) == 0 {
			continue
		}
		res := db.Model(new(M)).Where(pkColumn+" = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		changed += res.RowsAffected
	}
	return changed, nil
}

// orCreate looks up the row matching sq, or the row linked to the external
// code in opts when there is one. A missing row is created from the exact
// lookups of sq merged with values.
func (r *Repository[M]) orCreate(ctx context.Context, sq shared.Query, values map[string]any, opts shared.CallOptions) (*M, bool, error) {
	if opts.ExternalCode != "" {
		id, found, err := r.objectIDByCode(ctx, opts.ExternalCode, opts.CodeType)
		if err != nil {
			return nil, false, err
		}
		if found {
			sq = shared.Where(shared.Filters{pkColumn: id})
		}
	}

	q, err := r.filtered(ctx, sq, false)
	if err != nil {
		return nil, false, err
	}
	m, err := r.one(q)
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	seed, err := exactValues(sq)
	if err != nil {
		return nil, false, err
	}
	m, err = r.insert(ctx, merge(seed, values))
	if err != nil {
		return nil, false, err
	}
	if err := r.saveExternalCode(ctx, (*m).GetID(), opts); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *Repository[M]) updateOrCreate(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.Query)
	values, err := shared.Values(inv.Arg(1))
	if err != nil {
		return nil, err
	}

	m, created, err := r.orCreate(ctx, sq, merge(nil, values), inv.Options)
	if err != nil {
		return nil, err
	}
	if !created {
		if err := r.apply(ctx, r.store.DB(ctx).Model(m), values); err != nil {
			return nil, err
		}
	}
	return &shared.OrCreateResult{Object: (*m).GetID(), Created: created}, nil
}

func (r *Repository[M]) detailOrCreate(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	sq, _ := inv.Arg(0).(shared.Query)
	defaults, err := shared.Values(inv.Arg(1))
	if err != nil {
		return nil, err
	}

	m, created, err := r.orCreate(ctx, sq, defaults, inv.Options)
	if err != nil {
		return nil, err
	}

	// reload through the bound plan so relations are populated
	q, err := r.filtered(ctx, shared.Where(shared.Filters{pkColumn: (*m).GetID()}), true)
	if err != nil {
		return nil, err
	}
	if m, err = r.one(q); err != nil {
		return nil, err
	}
	return &shared.OrCreateResult{Object: m, Created: created}, nil
}

func (r *Repository[M]) delete(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	id, err := toUUID(inv.Arg(0))
	if err != nil {
		return nil, err
	}

	db := r.store.DB(ctx)
	m := new(M)
	if err := db.Select(pkColumn).First(m, pkColumn+" = ?", id).Error; err != nil {
		if inv.Options.Optional && errors.Is(err, gorm.ErrRecordNotFound) {
			return int64(0), nil
		}
		return nil, err
	}
	if err := r.deleteExternalCodes(ctx, id); err != nil {
		return nil, err
	}
	res := db.Delete(m)
	if res.Error != nil {
		return nil, res.Error
	}
	return res.RowsAffected, nil
}

func (r *Repository[M]) bulkDelete(ctx context.Context, inv *pipeline.Invocation) (any, error) {
	ids, _ := inv.Arg(0).([]uuid.UUID)
	if len(ids) == 0 {
		return int64(0), nil
	}
	if err := r.deleteExternalCodes(ctx, ids...); err != nil {
		return nil, err
	}
	res := r.store.DB(ctx).Where(pkColumn+" IN ?", ids).Delete(new(M))
	if res.Error != nil {
		return nil, res.Error
	}
	return res.RowsAffected, nil
}
