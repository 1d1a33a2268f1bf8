// Package expense wraps the /expenses endpoints.
package expense

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/api"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/category"
)

// CategoryRef is an expense's category field, which the backend sends
// either as a bare category ID or as the populated category object.
type CategoryRef struct {
	ID       string
	Category *category.Category // Set only for the populated shape
}

func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = id
		r.Category = nil
		return nil
	}
	var populated category.Category
	if err := json.Unmarshal(data, &populated); err != nil {
		return err
	}
	r.ID = populated.ID
	r.Category = &populated
	return nil
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	if r.Category != nil {
		return json.Marshal(r.Category)
	}
	return json.Marshal(r.ID)
}

// Name returns the category name when the populated shape was sent.
func (r CategoryRef) Name() string {
	if r.Category != nil {
		return r.Category.Name
	}
	return ""
}

// Expense mirrors the backend expense schema.
type Expense struct {
	ID          string      `json:"_id,omitempty"`
	Amount      float64     `json:"amount"`
	Description string      `json:"description"`
	Date        string      `json:"date"` // ISO date string, backend-formatted
	Category    CategoryRef `json:"category"`
	UserID      string      `json:"userId,omitempty"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

// CreateRequest creates an expense. Category is the category ID.
type CreateRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
}

// UpdateRequest updates an expense; nil fields are left unchanged.
type UpdateRequest struct {
	Amount      *float64 `json:"amount,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Date        *string  `json:"date,omitempty"`
}

// Service calls the expense endpoints.
type Service struct {
	client *api.Client
}

// NewService creates an expense service.
func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[expense.NewService] api client is required")
	}
	return &Service{client: client}, nil
}

func (s *Service) List(ctx context.Context) ([]Expense, error) {
	var envelope api.Envelope
	if err := s.client.Get(ctx, api.RouteExpenses, &envelope); err != nil {
		return nil, err
	}
	var out []Expense
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[expense.List] decode")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Expense, error) {
	var envelope api.Envelope
	if err := s.client.Get(ctx, api.RouteExpenses+"/"+id, &envelope); err != nil {
		return nil, err
	}
	var out Expense
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[expense.Get] decode")
	}
	return &out, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Expense, error) {
	var envelope api.Envelope
	if err := s.client.Post(ctx, api.RouteExpenses, req, &envelope); err != nil {
		return nil, err
	}
	var out Expense
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[expense.Create] decode")
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Expense, error) {
	var envelope api.Envelope
	if err := s.client.Put(ctx, api.RouteExpenses+"/"+id, req, &envelope); err != nil {
		return nil, err
	}
	var out Expense
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[expense.Update] decode")
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, api.RouteExpenses+"/"+id, nil)
}
