package dto

import "time"

type CreateProjectRequest struct {
	Key         string `json:"key" validate:"required,alphanum,min=2,max=10"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (r CreateProjectRequest) Validate() error {
	return validate.Struct(r)
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProjectCollectionResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Total    int               `json:"total"`
}

type CreateLabelRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (r CreateLabelRequest) Validate() error {
	return validate.Struct(r)
}

type LabelResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
