package task

type Task struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	IsCompleted bool   `db:"is_completed" json:"is_completed"`
	UserID      int64  `db:"user_id" json:"user_id"`
}

// Patch - частичное обновление; nil поле не меняется.
type Patch struct {
	Name        *string
	Description *string
	IsCompleted *bool
}
