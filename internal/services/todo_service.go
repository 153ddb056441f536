// Package services – TodoService
//
// This file implements the TodoService, which runs each todo use-case against
// a single connection borrowed from the pool. Every method follows the same
// shape: acquire, run exactly one repository call, release. Failures are
// classified with the taxonomy in errors.go (PoolError, DBError, BadRequest)
// so handlers can map them to HTTP results uniformly.
package services

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-todo-backend/internal/domain"
	"github.com/tbourn/go-todo-backend/internal/repo"
)

// TodoRepo defines the repository contract required by TodoService.
// Implementations issue one statement per call against the given handle.
type TodoRepo interface {
	// GetTodos returns all lists ordered by id.
	GetTodos(ctx context.Context, db *gorm.DB) ([]domain.TodoList, error)

	// GetItems returns the items of a list; empty when the list is empty or missing.
	GetItems(ctx context.Context, db *gorm.DB, listID int64) ([]domain.Item, error)

	// CreateTodo inserts a list and returns it with its generated id.
	CreateTodo(ctx context.Context, db *gorm.DB, title string) (*domain.TodoList, error)

	// CheckTodo marks an item done and reports whether it exists.
	CheckTodo(ctx context.Context, db *gorm.DB, listID, itemID int64) (bool, error)
}

// Pool hands out a connection for the duration of one operation.
// *repo.Pool satisfies it.
type Pool interface {
	Acquire(ctx context.Context) (*repo.Client, error)
}

// TodoService provides the list and item operations exposed over HTTP.
// It holds no mutable state and is safe for concurrent use.
type TodoService struct {
	// Pool supplies connections; it is the only shared resource.
	Pool Pool
	// Repo is the data access layer used by this service.
	Repo TodoRepo
}

// NewTodoService constructs a TodoService over the given pool and repository.
func NewTodoService(p Pool, r TodoRepo) *TodoService {
	return &TodoService{Pool: p, Repo: r}
}

// acquire borrows a client, classifying failures as PoolError.
func (s *TodoService) acquire(ctx context.Context) (*repo.Client, error) {
	c, err := s.Pool.Acquire(ctx)
	if err != nil {
		return nil, PoolError(err)
	}
	return c, nil
}

// List returns every todo list.
func (s *TodoService) List(ctx context.Context) ([]domain.TodoList, error) {
	c, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Release()

	out, err := s.Repo.GetTodos(ctx, c.DB)
	if err != nil {
		return nil, DBError(err)
	}
	return out, nil
}

// Items returns the items of listID. A nonexistent list yields an empty
// slice, the same as a list without items.
func (s *TodoService) Items(ctx context.Context, listID int64) ([]domain.Item, error) {
	c, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Release()

	out, err := s.Repo.GetItems(ctx, c.DB, listID)
	if err != nil {
		return nil, DBError(err)
	}
	return out, nil
}

// Create inserts a new list. The title is trimmed and normalized to NFC;
// a blank title is rejected before a connection is acquired.
func (s *TodoService) Create(ctx context.Context, title string) (*domain.TodoList, error) {
	title = normalizeTitle(title)
	if title == "" {
		return nil, BadRequest(ErrEmptyTitle)
	}

	c, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Release()

	l, err := s.Repo.CreateTodo(ctx, c.DB, title)
	if err != nil {
		return nil, DBError(err)
	}
	return l, nil
}

// Check marks item itemID of list listID as done. It reports false when the
// pair does not exist; repeating it on a done item reports true.
func (s *TodoService) Check(ctx context.Context, listID, itemID int64) (bool, error) {
	c, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer c.Release()

	updated, err := s.Repo.CheckTodo(ctx, c.DB, listID, itemID)
	if err != nil {
		return false, DBError(err)
	}
	return updated, nil
}

// normalizeTitle trims surrounding whitespace and composes the text to NFC
// so visually identical titles are stored identically.
func normalizeTitle(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
