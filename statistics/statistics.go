// Package statistics wraps the /statistics aggregation endpoints.
package statistics

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/api"
)

// CategorySummary names a category inside an aggregation result.
type CategorySummary struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CategoryExpense is the per-category spending total.
type CategoryExpense struct {
	ID          string          `json:"_id"`
	TotalAmount float64         `json:"totalAmount"`
	Category    CategorySummary `json:"category"`
}

// Period identifies a calendar month in a trend row.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// MonthlyTrend is one month's spending total and expense count.
type MonthlyTrend struct {
	Period      Period  `json:"_id"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int     `json:"count"`
}

// TopCategory is one row of the highest-spend category ranking.
type TopCategory struct {
	ID          string          `json:"_id"`
	TotalAmount float64         `json:"totalAmount"`
	Count       int             `json:"count"`
	Category    CategorySummary `json:"category"`
}

// Summary is the account-wide expense summary.
type Summary struct {
	TotalExpenses  int     `json:"totalExpenses"`
	TotalAmount    float64 `json:"totalAmount"`
	AverageExpense float64 `json:"averageExpense"`
	CategoryCount  int     `json:"categoryCount"`
}

// Service calls the statistics endpoints.
type Service struct {
	client *api.Client
}

// NewService creates a statistics service.
func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[statistics.NewService] api client is required")
	}
	return &Service{client: client}, nil
}

func (s *Service) ByCategory(ctx context.Context) ([]CategoryExpense, error) {
	var envelope api.Envelope
	if err := s.client.Get(ctx, api.RouteStatisticsByCategory, &envelope); err != nil {
		return nil, err
	}
	var out []CategoryExpense
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[statistics.ByCategory] decode")
	}
	return out, nil
}

func (s *Service) MonthlyTrends(ctx context.Context) ([]MonthlyTrend, error) {
	var envelope api.Envelope
	if err := s.client.Get(ctx, api.RouteStatisticsMonthlyTrends, &envelope); err != nil {
		return nil, err
	}
	var out []MonthlyTrend
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[statistics.MonthlyTrends] decode")
	}
	return out, nil
}

// TopCategories returns the highest-spend categories; limit <= 0 leaves
// the count to the backend default.
func (s *Service) TopCategories(ctx context.Context, limit int) ([]TopCategory, error) {
	path := api.RouteStatisticsTopCategories
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var envelope api.Envelope
	if err := s.client.Get(ctx, path, &envelope); err != nil {
		return nil, err
	}
	var out []TopCategory
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[statistics.TopCategories] decode")
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var envelope api.Envelope
	if err := s.client.Get(ctx, api.RouteStatisticsSummary, &envelope); err != nil {
		return nil, err
	}
	var out Summary
	if err := envelope.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "[statistics.Summary] decode")
	}
	return &out, nil
}
