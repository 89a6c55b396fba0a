package interactor

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Detail returns the single row matching q.
func (i *Interactor) Detail(ctx context.Context, q shared.Query, opts ...CallOption) (any, error) {
	ctx, span := i.span(ctx, shared.OpDetail)
	var err error
	defer func() { finish(span, err) }()

	repo, err := capability[shared.Detailer](i, shared.OpDetail)
	if err != nil {
		return nil, err
	}
	call := NewCall(opts...)
	i.bind(ctx, shared.OpDetail, true, call)
	out, err := repo.Detail(ctx, q, call.Options...)
	return out, err
}

// DetailByPK returns the row id.
func (i *Interactor) DetailByPK(ctx context.Context, id uuid.UUID, opts ...CallOption) (any, error) {
	ctx, span := i.span(ctx, shared.OpDetailByPK)
	var err error
	defer func() { finish(span, err) }()

	repo, err := capability[shared.PKDetailer](i, shared.OpDetailByPK)
	if err != nil {
		return nil, err
	}
	call := NewCall(opts...)
	i.bind(ctx, shared.OpDetailByPK, true, call)
	out, err := repo.DetailByPK(ctx, id, call.Options...)
	return out, err
}

// DetailByExternalCode returns the row linked to code of codeType.
func (i *Interactor) DetailByExternalCode(ctx context.Context, code, codeType string, opts ...CallOption) (any, error) {
	ctx, span := i.span(ctx, shared.OpDetailByExternalCode)
	var err error
	defer func() { finish(span, err) }()

	repo, err := capability[shared.ExternalCodeDetailer](i, shared.OpDetailByExternalCode)
	if err != nil {
		return nil, err
	}
	call := NewCall(opts...)
	i.bind(ctx, shared.OpDetailByExternalCode, true, call)
	out, err := repo.DetailByExternalCode(ctx, code, codeType, call.Options...)
	return out, err
}

// Retrieve lists the rows of q. A zero limit uses the default page size
// and a negative one lists every row. Unless turned off with
// Paginated(false) the result is a shared.Paginated[any].
func (i *Interactor) Retrieve(ctx context.Context, q shared.ListQuery, opts ...CallOption) (any, error) {
	ctx, span := i.span(ctx, shared.OpRetrieve)
	var err error
	defer func() { finish(span, err) }()

	repo, err := capability[shared.Retriever](i, shared.OpRetrieve)
	if err != nil {
		return nil, err
	}
	call := NewCall(opts...)
	q.Page = i.normalizePage(q.Page)
	i.bind(ctx, shared.OpRetrieve, false, call)

	out, err := repo.Retrieve(ctx, q, call.Options...)
	if err != nil || !call.IsPaginated() {
		return out, err
	}
	count, err := repo.Count(ctx, q.Query)
	if err != nil {
		return nil, err
	}
	return paginate(out, count, q.Page), nil
}

// Search lists the rows of q matching its search term. Limits and
// pagination behave as in Retrieve.
func (i *Interactor) Search(ctx context.Context, q shared.SearchQuery, opts ...CallOption) (any, error) {
	ctx, span := i.span(ctx, shared.OpSearch)
	var err error
	defer func() { finish(span, err) }()

	repo, err := capability[shared.Searcher](i, shared.OpSearch)
	if err != nil {
		return nil, err
	}
	call := NewCall(opts...)
	q.Page = i.normalizePage(q.Page)
	i.bind(ctx, shared.OpSearch, false, call)

	out, err := repo.Search(ctx, q, call.Options...)
	if err != nil || !call.IsPaginated() {
		return out, err
	}
	count, err := repo.SearchCount(ctx, q)
	if err != nil {
		return nil, err
	}
	return paginate(out, count, q.Page), nil
}

func (i *Interactor) normalizePage(p shared.Page) shared.Page {
	switch {
	case p.Limit == 0:
		p.Limit = i.limit
	case p.Limit < 0:
		p.Limit = 0
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func paginate(out any, count int64, p shared.Page) shared.Paginated[any] {
	return shared.NewPaginated(items(out), count, p.Limit, p.Offset)
}

// items returns the elements of a list result.
func items(out any) []any {
	if list, ok := out.([]any); ok {
		return list
	}
	v := reflect.ValueOf(out)
	if !v.IsValid() || v.Kind() != reflect.Slice {
		return nil
	}
	list := make([]any, v.Len())
	for idx := range list {
		list[idx] = v.Index(idx).Interface()
	}
	return list
}
