package interactor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// Keys of a patch_list item
const (
	idField     = "ID"
	deleteField = "Delete"
)

// values validates dto and flattens it into the values written by the
// repository. Unset pointer fields are left out.
func (i *Interactor) values(dto any) (map[string]any, error) {
	if dto == nil {
		return map[string]any{}, nil
	}
	if isStruct(dto) {
		if err := i.validator.Struct(dto); err != nil {
			return nil, err
		}
	}
	return shared.Values(dto)
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// Create validates dto and creates a row from it. It returns the primary key.
func (i *Interactor) Create(ctx context.Context, dto any, opts ...CallOption) (any, error) {
	ctx, span := i.span(ctx, shared.OpCreate)
	var err error
	defer func() { finish(span, err) }()

	repo, err := capability[shared.Creator](i, shared.OpCreate)
	if err != nil {
		return nil, err
	}
	if err = i.ValidateRequiredFields(ctx, dto); err != nil {
		return nil, err
	}
	values, err := i.values(dto)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 && !i.allowBlank {
		err = shared.ErrNothingToUpdate
		return nil, err
	}

	id, err := repo.Create(ctx, values, NewCall(opts...).Options...)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Created", zap.String("component", i.name), zap.Any("id", id))
	return id, nil
}

// Update validates dto and applies it to the row id. It returns the
// primary key. When values touch a locked field that is not mutable the
// current row is loaded first and changes to it are rejected.
func (i *Interactor) Update(ctx context.Context, id uuid.UUID, dto any, opts ...CallOption) (any, error) {
	ctx, span := i.span(ctx, shared.OpUpdate)
	var err error
	defer func() { finish(span, err) }()

	repo, err := capability[shared.Updater](i, shared.OpUpdate)
	if err != nil {
		return nil, err
	}
	values, err := i.values(dto)
	if err != nil {
		return nil, err
	}
	delete(values, idField)
	if len(values) == 0 && !i.allowBlank {
		err = shared.ErrNothingToUpdate
		return nil, err
	}

	if i.touchesLocked(values) {
		if err = i.checkLocked(ctx, id, values); err != nil {
			return nil, err
		}
	}

	values[idField] = id
	out, err := repo.Update(ctx, values, NewCall(opts...).Options...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (i *Interactor) touchesLocked(values map[string]any) bool {
	for _, name := range i.locked {
		if i.mutable[name] {
			continue
		}
		if v, ok := lookup(values, name); ok && !isNilValue(v) {
			return true
		}
	}
	return false
}

func (i *Interactor) checkLocked(ctx context.Context, id uuid.UUID, values map[string]any) error {
	detailer, ok := i.repo.(shared.PKDetailer)
	if !ok {
		return nil
	}
	current, err := detailer.DetailByPK(ctx, id, shared.WithMode(shared.ModeEntity))
	if err != nil {
		return err
	}
	return i.ValidateChangedFields(current, values)
}

// PatchList applies a list of item changes read from the items field of
// dto. An item with Delete set is deleted by ID, an item with an ID is
// updated and any other item is created. createExtra and updateExtra are
// merged into every created and updated item. Map payloads may spell the
// field names in snake case ("items", "id", "delete"). The changes run in
// one transaction when the interactor has a transactor.
func (i *Interactor) PatchList(ctx context.Context, dto any, createExtra, updateExtra map[string]any) error {
	ctx, span := i.span(ctx, shared.OpPatchList)
	var err error
	defer func() { finish(span, err) }()

	items, ok := itemsOf(dto, i.itemsField)
	if !ok {
		return nil
	}

	var toCreate, toUpdate []map[string]any
	var toDelete []uuid.UUID
	for idx, item := range items {
		values, verr := i.values(item)
		if verr != nil {
			err = fmt.Errorf("item %d: %w", idx, verr)
			return err
		}
		id := itemID(takeField(values, idField))
		remove, _ := takeField(values, deleteField).(bool)

		if remove {
			if id != uuid.Nil {
				toDelete = append(toDelete, id)
			}
			continue
		}
		if len(values) == 0 && !i.allowBlank {
			err = shared.ErrNothingToUpdate
			return err
		}
		if id != uuid.Nil {
			for k, v := range updateExtra {
				values[k] = v
			}
			values[idField] = id
			toUpdate = append(toUpdate, values)
			continue
		}
		for k, v := range createExtra {
			values[k] = v
		}
		toCreate = append(toCreate, values)
	}

	if err = i.hooks.Validate(ctx, toCreate, toUpdate, toDelete); err != nil {
		return err
	}
	apply := func(ctx context.Context) error {
		return i.applyPatch(ctx, toCreate, toUpdate, toDelete)
	}
	if i.transactor != nil {
		err = i.transactor.InTransaction(ctx, apply)
	} else {
		err = apply(ctx)
	}
	return err
}

func (i *Interactor) applyPatch(ctx context.Context, toCreate, toUpdate []map[string]any, toDelete []uuid.UUID) error {
	if len(toCreate) > 0 {
		repo, err := capability[shared.BulkCreator](i, shared.OpPatchList)
		if err != nil {
			return err
		}
		if err := i.hooks.ValidateCreate(ctx, toCreate); err != nil {
			return err
		}
		entities := make([]any, len(toCreate))
		for idx, v := range toCreate {
			entities[idx] = v
		}
		if _, err := repo.BulkCreate(ctx, entities); err != nil {
			return err
		}
	}
	if len(toDelete) > 0 {
		repo, err := capability[shared.BulkDeleter](i, shared.OpPatchList)
		if err != nil {
			return err
		}
		if err := i.hooks.ValidateDelete(ctx, toDelete); err != nil {
			return err
		}
		if _, err := repo.BulkDelete(ctx, toDelete); err != nil {
			return err
		}
	}
	if len(toUpdate) > 0 {
		repo, err := capability[shared.Updater](i, shared.OpPatchList)
		if err != nil {
			return err
		}
		if err := i.hooks.ValidateUpdate(ctx, toUpdate); err != nil {
			return err
		}
		for _, values := range toUpdate {
			if _, err := repo.Update(ctx, values); err != nil {
				return err
			}
		}
	}
	logger.L(ctx).Debug("Patched list",
		zap.String("component", i.name),
		zap.Int("created", len(toCreate)),
		zap.Int("updated", len(toUpdate)),
		zap.Int("deleted", len(toDelete)),
	)
	return nil
}

// itemsOf returns the elements of the slice field name of dto.
func itemsOf(dto any, name string) ([]any, bool) {
	var field reflect.Value
	if m, ok := dto.(map[string]any); ok {
		key, found := fieldKey(m, name)
		if !found {
			return nil, false
		}
		field = reflect.ValueOf(m[key])
	} else {
		v := reflect.ValueOf(dto)
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, false
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return nil, false
		}
		field = v.FieldByName(name)
	}
	if !field.IsValid() || (field.Kind() != reflect.Slice && field.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, field.Len())
	for idx := range out {
		out[idx] = field.Index(idx).Interface()
	}
	return out, true
}

// fieldKey returns the key of m naming field name. Keys match ignoring
// case and underscores, so "order_id" names OrderID.
func fieldKey(m map[string]any, name string) (string, bool) {
	if _, ok := m[name]; ok {
		return name, true
	}
	for k := range m {
		if strings.EqualFold(strings.ReplaceAll(k, "_", ""), name) {
			return k, true
		}
	}
	return "", false
}

// takeField removes field name from values and returns its value.
func takeField(values map[string]any, name string) any {
	key, ok := fieldKey(values, name)
	if !ok {
		return nil
	}
	v := values[key]
	delete(values, key)
	return v
}

func itemID(v any) uuid.UUID {
	switch id := v.(type) {
	case uuid.UUID:
		return id
	case *uuid.UUID:
		if id != nil {
			return *id
		}
	case string:
		if parsed, err := uuid.Parse(id); err == nil {
			return parsed
		}
	}
	return uuid.Nil
}

// Delete deletes the row id.
func (i *Interactor) Delete(ctx context.Context, id uuid.UUID, opts ...CallOption) error {
	ctx, span := i.span(ctx, shared.OpDelete)
	var err error
	defer func() { finish(span, err) }()

	repo, err := capability[shared.Deleter](i, shared.OpDelete)
	if err != nil {
		return err
	}
	err = repo.Delete(ctx, id, NewCall(opts...).Options...)
	return err
}
