package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

func errCodeNotFound(table, code, codeType string) error {
	return fmt.Errorf("%s: external code %q (type %q): %w", table, code, codeType, gorm.ErrRecordNotFound)
}

// saveExternalCode links id to the external code carried by opts. An empty
// code links nothing.
func (r *Repository[M]) saveExternalCode(ctx context.Context, id uuid.UUID, opts shared.CallOptions) error {
	if opts.ExternalCode == "" {
		return nil
	}
	link := models.ExternalCodeModel{
		Code:      opts.ExternalCode,
		CodeType:  opts.CodeType,
		ModelType: r.table,
		ObjectID:  id,
	}
	if err := r.store.DB(ctx).Create(&link).Error; err != nil {
		return fmt.Errorf("%s: save external code: %w", r.cfg.component, err)
	}
	return nil
}

// objectIDByCode resolves an external code to the id of the linked row.
func (r *Repository[M]) objectIDByCode(ctx context.Context, code, codeType string) (uuid.UUID, bool, error) {
	var link models.ExternalCodeModel
	err := r.store.DB(ctx).
		Where("code = ? AND code_type = ? AND model_type = ?", code, codeType, r.table).
		Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return link.ObjectID, true, nil
}

// deleteExternalCodes drops every code linked to ids.
func (r *Repository[M]) deleteExternalCodes(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.store.DB(ctx).
		Where("model_type = ? AND object_id IN ?", r.table, ids).
		Delete(&models.ExternalCodeModel{}).Error
}
