// Todo HTTP handlers.
//
// This file exposes REST endpoints for todo lists and items:
//   - GET    /                                  (status)
//   - GET    /todos                             (list lists)
//   - POST   /todos                             (create list)
//   - GET    /todos/{list_id}/items             (list items)
//   - PUT    /todos/{list_id}/items/{item_id}   (mark item done)
//
// Every database-backed handler runs the same template: tag a request-scoped
// logger with the handler name, validate path/body input, call the service
// (which acquires a pooled connection), then either write 200 + JSON or hand
// the error to failErr.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-todo-backend/internal/domain"
	"github.com/tbourn/go-todo-backend/internal/http/middleware"
	"github.com/tbourn/go-todo-backend/internal/services"
	"github.com/tbourn/go-todo-backend/internal/utils"
)

// TodoService defines the list and item operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation.
type TodoService interface {
	// List returns every todo list.
	List(ctx context.Context) ([]domain.TodoList, error)
	// Items returns the items of a list (empty for unknown lists).
	Items(ctx context.Context, listID int64) ([]domain.Item, error)
	// Create inserts a list with the given title.
	Create(ctx context.Context, title string) (*domain.TodoList, error)
	// Check marks an item done and reports whether it exists.
	Check(ctx context.Context, listID, itemID int64) (bool, error)
}

// Handlers groups the HTTP endpoints of the todo API.
type Handlers struct {
	todoSvc TodoService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(todoSvc TodoService) *Handlers {
	return &Handlers{todoSvc: todoSvc}
}

// handlerLogger derives the request-scoped logger tagged with the handler name.
func handlerLogger(c *gin.Context, name string) *zerolog.Logger {
	l := middleware.LoggerFrom(c).With().Str("handler", name).Logger()
	return &l
}

// pathID parses a numeric path parameter, returning a BadRequest service
// error when it is not a decimal integer.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		return 0, services.BadRequest(fmt.Errorf("%s must be a decimal integer", name))
	}
	return id, nil
}

// bindJSON decodes the whole body into dst and runs gin's validator on it.
// Unlike ShouldBindJSON it rejects anything after the first JSON value.
func bindJSON(c *gin.Context, dst any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(dst)
}

// Status godoc
// @ID          status
// @Summary     Liveness probe
// @Description Always reports Ok; does not touch the database.
// @Tags        Health
// @Produce     json
// @Success     200  {object}  domain.Status
// @Router      / [get]
func (h *Handlers) Status(c *gin.Context) {
	ok(c, http.StatusOK, domain.StatusOK)
}

// GetTodos godoc
// @ID          getTodos
// @Summary     List todo lists
// @Description Returns every todo list ordered by id.
// @Tags        Todos
// @Produce     json
// @Success     200  {array}   domain.TodoList
// @Failure     500  {object}  handlers.ErrorResponse  "Database error"
// @Router      /todos [get]
func (h *Handlers) GetTodos(c *gin.Context) {
	lg := handlerLogger(c, "get_todos")

	todos, err := h.todoSvc.List(c.Request.Context())
	if err != nil {
		failErr(c, lg, err)
		return
	}
	ok(c, http.StatusOK, todos)
}

// GetItems godoc
// @ID          getItems
// @Summary     List items of a todo list
// @Description Returns the items of a list ordered by id. An unknown list yields an empty array.
// @Tags        Items
// @Produce     json
// @Param       list_id  path  int  true  "List ID"  example(1)
// @Success     200  {array}   domain.Item
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid list id"
// @Failure     500  {object}  handlers.ErrorResponse  "Database error"
// @Router      /todos/{list_id}/items [get]
func (h *Handlers) GetItems(c *gin.Context) {
	lg := handlerLogger(c, "get_items")

	listID, err := pathID(c, "list_id")
	if err != nil {
		failErr(c, lg, err)
		return
	}

	items, err := h.todoSvc.Items(c.Request.Context(), listID)
	if err != nil {
		failErr(c, lg, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateTodo godoc
// @ID          createTodo
// @Summary     Create a todo list
// @Description Creates a list with the given title and returns it with its id.
// @Tags        Todos
// @Accept      json
// @Produce     json
// @Param       body  body  domain.CreateTodoList  true  "Create list payload"
// @Success     200  {object}  domain.TodoList
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body or blank title"
// @Failure     413  {object}  handlers.ErrorResponse  "Body over MAX_BODY_BYTES"
// @Failure     500  {object}  handlers.ErrorResponse  "Database error"
// @Router      /todos [post]
func (h *Handlers) CreateTodo(c *gin.Context) {
	lg := handlerLogger(c, "create_todo")

	var req domain.CreateTodoList
	if err := bindJSON(c, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			lg.Warn().Int64("limit", tooLarge.Limit).Msg("request body too large")
			abort(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return
		}
		failErr(c, lg, services.BadRequest(fmt.Errorf("invalid JSON body: title required")))
		return
	}

	todo, err := h.todoSvc.Create(c.Request.Context(), req.Title)
	if err != nil {
		failErr(c, lg, err)
		return
	}
	ok(c, http.StatusOK, todo)
}

// CheckItem godoc
// @ID          checkItem
// @Summary     Mark an item done
// @Description Sets the item's done flag. Repeating the call on a done item still succeeds. success=false means the item does not exist in that list.
// @Tags        Items
// @Produce     json
// @Param       list_id  path  int  true  "List ID"  example(1)
// @Param       item_id  path  int  true  "Item ID"  example(1)
// @Success     200  {object}  domain.ResultResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     500  {object}  handlers.ErrorResponse  "Database error"
// @Router      /todos/{list_id}/items/{item_id} [put]
func (h *Handlers) CheckItem(c *gin.Context) {
	lg := handlerLogger(c, "check_item")

	listID, err := pathID(c, "list_id")
	if err != nil {
		failErr(c, lg, err)
		return
	}
	itemID, err := pathID(c, "item_id")
	if err != nil {
		failErr(c, lg, err)
		return
	}

	updated, err := h.todoSvc.Check(c.Request.Context(), listID, itemID)
	if err != nil {
		failErr(c, lg, err)
		return
	}
	ok(c, http.StatusOK, domain.ResultResponse{Success: updated})
}
