// Package repo implements the data persistence layer for todo lists and
// items, backed by GORM. This file provides the repository functions used by
// the todo service.
//
// All functions are context-aware and accept a *gorm.DB handle, typically the
// session of a Client borrowed from a Pool. They follow the "thin repository"
// approach: one statement per call, no business logic.
//
// Error semantics:
//   - On DB errors (constraint violations, connectivity issues, etc.), the
//     raw gorm error is propagated. Nothing is retried.
//   - Missing rows are not errors: GetItems returns an empty slice and
//     CheckTodo returns false.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

// GetTodos returns every list ordered by id ascending (insertion order). It
// returns an empty, non-nil slice when there are no lists.
func GetTodos(ctx context.Context, db *gorm.DB) ([]domain.TodoList, error) {
	out := make([]domain.TodoList, 0)
	err := db.WithContext(ctx).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetItems returns the items of listID ordered by id ascending. A missing
// list and an empty list both yield an empty slice.
func GetItems(ctx context.Context, db *gorm.DB, listID int64) ([]domain.Item, error) {
	out := make([]domain.Item, 0)
	err := db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// CreateTodo inserts a new list with the given title and returns it with its
// generated ID.
func CreateTodo(ctx context.Context, db *gorm.DB, title string) (*domain.TodoList, error) {
	l := &domain.TodoList{Title: title}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// CheckTodo marks item itemID of list listID as done. It reports true when
// exactly one row matched and false when the pair does not exist. Checking an
// item that is already done still reports true.
func CheckTodo(ctx context.Context, db *gorm.DB, listID, itemID int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Item{}).
		Where("list_id = ? AND id = ?", listID, itemID).
		Update("done", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
