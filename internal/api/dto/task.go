package dto

type CreateTaskRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=10000"`
	IsCompleted bool   `json:"is_completed"`
}

// UpdateTaskRequest - частичное обновление: nil означает "не менять".
type UpdateTaskRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,max=10000"`
	IsCompleted *bool   `json:"is_completed"`
}

func (r UpdateTaskRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.IsCompleted == nil
}
