// Package services holds the marketplace use cases. Every mutating operation
// resolves ownership facts, asks the policy engine, validates, then writes.
package services

import (
	"context"
	"errors"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"gorm.io/gorm"
)

// PageSize is the number of rows returned per list page.
const PageSize = 20

// ListResult is a page of rows plus the total row count.
type ListResult[T any] struct {
	Items []T
	Total int64
	Page  int
}

func paginate(page int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	return page, PageSize, (page - 1) * PageSize
}

// fetchPage counts the rows matched by q and loads one page of them ordered by order.
func fetchPage[T any](ctx context.Context, q *gorm.DB, page int, order string) (*ListResult[T], error) {
	page, limit, offset := paginate(page)
	q = q.WithContext(ctx).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	items := make([]T, 0, limit)
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return &ListResult[T]{Items: items, Total: total, Page: page}, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// hideDenied turns a read denial into not found, so callers cannot probe for
// orders they are not allowed to see.
func hideDenied(err error, entity string) error {
	if errors.Is(err, gate.ErrForbidden) || errors.Is(err, gate.ErrUnauthenticated) {
		return apperr.NotFound(entity)
	}
	return err
}
