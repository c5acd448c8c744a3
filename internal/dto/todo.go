package dto

import dom "todoevents/internal/domain"

type CreateTodoRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"required,min=1,max=2000"`
	Completed   *bool  `json:"completed"` // optional, defaults to false
}

// UpdateTodoRequest is a partial update: absent fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,min=1,max=2000"`
	Completed   *bool   `json:"completed"`
}

type TodoResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type ListTodosResponse struct {
	Items []TodoResponse `json:"items"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (r CreateTodoRequest) Input() dom.CreateInput {
	return dom.CreateInput{Title: r.Title, Description: r.Description, Completed: r.Completed}
}

func (r UpdateTodoRequest) Patch() dom.Patch {
	return dom.Patch{Title: r.Title, Description: r.Description, Completed: r.Completed}
}

func TodoToResponse(t dom.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func TodosToResponses(list []dom.Todo) []TodoResponse {
	out := make([]TodoResponse, len(list))
	for i := range list {
		out[i] = TodoToResponse(list[i])
	}
	return out
}
