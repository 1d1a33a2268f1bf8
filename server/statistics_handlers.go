package server

import (
	"net/http"
	"sort"
	"strconv"
)

type categorySummary struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type categoryTotal struct {
	ID          string          `json:"_id"`
	TotalAmount float64         `json:"totalAmount"`
	Count       int             `json:"count,omitempty"`
	Category    categorySummary `json:"category"`
}

// aggregateByCategory computes spend totals per category, largest
// first, mirroring the backend's aggregation pipeline.
func (s *Server) aggregateByCategory(userID string) []categoryTotal {
	totals := map[string]*categoryTotal{}
	for _, e := range s.data.expensesByUser(userID) {
		t, ok := totals[e.CategoryID]
		if !ok {
			summary := categorySummary{ID: e.CategoryID}
			if c := s.data.categoryByID(userID, e.CategoryID); c != nil {
				summary.Name = c.Name
				summary.Description = c.Description
			}
			t = &categoryTotal{ID: e.CategoryID, Category: summary}
			totals[e.CategoryID] = t
		}
		t.TotalAmount += e.Amount
		t.Count++
	}
	out := make([]categoryTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalAmount > out[j].TotalAmount })
	return out
}

func (s *Server) StatisticsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	totals := s.aggregateByCategory(requestUserID(r))
	for i := range totals {
		totals[i].Count = 0 // by-category rows carry totals only
	}
	writeSuccess(w, http.StatusOK, totals)
}

func (s *Server) StatisticsTopCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	totals := s.aggregateByCategory(requestUserID(r))
	if len(totals) > limit {
		totals = totals[:limit]
	}
	writeSuccess(w, http.StatusOK, totals)
}

func (s *Server) StatisticsMonthlyTrendsHandler(w http.ResponseWriter, r *http.Request) {
	type period struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}
	type trend struct {
		Period      period  `json:"_id"`
		TotalAmount float64 `json:"totalAmount"`
		Count       int     `json:"count"`
	}

	byMonth := map[period]*trend{}
	for _, e := range s.data.expensesByUser(requestUserID(r)) {
		p := period{Year: e.Date.Year(), Month: int(e.Date.Month())}
		t, ok := byMonth[p]
		if !ok {
			t = &trend{Period: p}
			byMonth[p] = t
		}
		t.TotalAmount += e.Amount
		t.Count++
	}
	out := make([]trend, 0, len(byMonth))
	for _, t := range byMonth {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period.Year != out[j].Period.Year {
			return out[i].Period.Year < out[j].Period.Year
		}
		return out[i].Period.Month < out[j].Period.Month
	})
	writeSuccess(w, http.StatusOK, out)
}

func (s *Server) StatisticsSummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	expenses := s.data.expensesByUser(userID)

	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	average := 0.0
	if len(expenses) > 0 {
		average = total / float64(len(expenses))
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"totalExpenses":  len(expenses),
		"totalAmount":    total,
		"averageExpense": average,
		"categoryCount":  len(s.data.categoriesByUser(userID)),
	})
}
