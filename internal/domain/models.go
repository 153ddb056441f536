// Package domain defines the persistence models and wire payloads for todo
// lists and their items. The persisted types are mapped with GORM and form the
// core data layer of the todo service.
package domain

// TodoList is a named collection of items. It is created once and never
// updated or deleted by the API.
//
// Fields:
//   - ID: server-generated autoincrement primary key; never reused.
//   - Title: human-readable list name; required.
type TodoList struct {
	ID    int64  `json:"id"    gorm:"primaryKey;autoIncrement"`
	Title string `json:"title" gorm:"type:text;not null"`
}

// TableName returns the database table name for TodoList.
func (TodoList) TableName() string { return "todo_list" }

// Item is a single task belonging to exactly one TodoList.
//
// Fields:
//   - ID: server-generated autoincrement primary key.
//   - ListID: foreign key to the owning list (indexed).
//   - Title: task text; required.
//   - Done: completion flag, false until the item is checked.
//   - List: FK association, cascades when the list is removed.
type Item struct {
	ID     int64  `json:"id"      gorm:"primaryKey;autoIncrement"`
	ListID int64  `json:"list_id" gorm:"not null;index:idx_item_list"`
	Title  string `json:"title"   gorm:"type:text;not null"`
	Done   bool   `json:"done"    gorm:"not null;default:false"`

	List TodoList `json:"-" gorm:"foreignKey:ListID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Item.
func (Item) TableName() string { return "todo_item" }

// CreateTodoList is the JSON payload accepted when creating a list.
type CreateTodoList struct {
	// Title names the new list; it must not be blank.
	Title string `json:"title" binding:"required" example:"Groceries"`
}

// Status is the liveness payload returned by the root endpoint.
type Status struct {
	Status string `json:"status" example:"Ok"`
}

// StatusOK is the only Status the service reports.
var StatusOK = Status{Status: "Ok"}

// ResultResponse reports whether a mutation touched a row.
type ResultResponse struct {
	Success bool `json:"success" example:"true"`
}
