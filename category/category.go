// Package category wraps the /categories endpoints.
package category

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/api"
)

// Category mirrors the backend category schema.
type Category struct {
	ID             string   `json:"_id,omitempty"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	UserID         string   `json:"userId,omitempty"`
	ListOfExpenses []string `json:"listOfExpenses,omitempty"` // Expense IDs
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

// CreateRequest creates a category.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateRequest updates a category; nil fields are left unchanged.
type UpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Service calls the category endpoints.
type Service struct {
	client *api.Client
}

// NewService creates a category service.
func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[category.NewService] api client is required")
	}
	return &Service{client: client}, nil
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	var envelope api.Envelope
	if err := s.client.Get(ctx, api.RouteCategories, &envelope); err != nil {
		return nil, err
	}
	var out []Category
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[category.List] decode")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Category, error) {
	var envelope api.Envelope
	if err := s.client.Get(ctx, api.RouteCategories+"/"+id, &envelope); err != nil {
		return nil, err
	}
	var out Category
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[category.Get] decode")
	}
	return &out, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Category, error) {
	var envelope api.Envelope
	if err := s.client.Post(ctx, api.RouteCategories, req, &envelope); err != nil {
		return nil, err
	}
	var out Category
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[category.Create] decode")
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Category, error) {
	var envelope api.Envelope
	if err := s.client.Put(ctx, api.RouteCategories+"/"+id, req, &envelope); err != nil {
		return nil, err
	}
	var out Category
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[category.Update] decode")
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, api.RouteCategories+"/"+id, nil)
}
