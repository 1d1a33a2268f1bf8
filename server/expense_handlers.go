package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type categoryResponse struct {
	ID             string   `json:"_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	UserID         string   `json:"userId"`
	ListOfExpenses []string `json:"listOfExpenses,omitempty"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
}

type expenseResponse struct {
	ID          string  `json:"_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Category    any     `json:"category"` // category ID, or populated object on single fetch
	UserID      string  `json:"userId"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func (s *Server) toCategoryResponse(c *storedCategory) categoryResponse {
	return categoryResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		UserID:         c.UserID,
		ListOfExpenses: s.data.expensesForCategory(c.ID),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) toExpenseResponse(e *storedExpense, populate bool) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date.Format(time.RFC3339),
		Category:    e.CategoryID,
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
	if populate {
		if c := s.data.categoryByID(e.UserID, e.CategoryID); c != nil {
			resp.Category = s.toCategoryResponse(c)
		}
	}
	return resp
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (s *Server) ListExpensesHandler(w http.ResponseWriter, r *http.Request) {
	expenses := s.data.expensesByUser(requestUserID(r))
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, s.toExpenseResponse(e, false))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (s *Server) GetExpenseHandler(w http.ResponseWriter, r *http.Request) {
	e := s.data.expenseByID(requestUserID(r), chi.URLParam(r, "id"))
	if e == nil {
		writeFail(w, http.StatusNotFound, "expense not found")
		return
	}
	writeSuccess(w, http.StatusOK, s.toExpenseResponse(e, true))
}

func (s *Server) CreateExpenseHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Date        string  `json:"date"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := requestUserID(r)
	details := map[string][]string{}
	if req.Amount <= 0 {
		details["amount"] = append(details["amount"], "amount must be positive")
	}
	if req.Description == "" {
		details["description"] = append(details["description"], "description is required")
	}
	date, ok := parseDate(req.Date)
	if !ok {
		details["date"] = append(details["date"], "date must be an ISO date")
	}
	if s.data.categoryByID(userID, req.Category) == nil {
		details["category"] = append(details["category"], "unknown category")
	}
	if len(details) > 0 {
		writeValidationFail(w, "validation failed", details)
		return
	}

	e := s.data.createExpense(&storedExpense{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		CategoryID:  req.Category,
		UserID:      userID,
	})
	writeSuccess(w, http.StatusCreated, s.toExpenseResponse(e, false))
}

func (s *Server) UpdateExpenseHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      *float64 `json:"amount"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Date        *string  `json:"date"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := requestUserID(r)
	if req.Category != nil && s.data.categoryByID(userID, *req.Category) == nil {
		writeValidationFail(w, "validation failed", map[string][]string{"category": {"unknown category"}})
		return
	}
	var date time.Time
	if req.Date != nil {
		parsed, ok := parseDate(*req.Date)
		if !ok {
			writeValidationFail(w, "validation failed", map[string][]string{"date": {"date must be an ISO date"}})
			return
		}
		date = parsed
	}

	e := s.data.updateExpense(userID, chi.URLParam(r, "id"), func(e *storedExpense) {
		if req.Amount != nil {
			e.Amount = *req.Amount
		}
		if req.Description != nil {
			e.Description = *req.Description
		}
		if req.Category != nil {
			e.CategoryID = *req.Category
		}
		if req.Date != nil {
			e.Date = date
		}
	})
	if e == nil {
		writeFail(w, http.StatusNotFound, "expense not found")
		return
	}
	writeSuccess(w, http.StatusOK, s.toExpenseResponse(e, false))
}

func (s *Server) DeleteExpenseHandler(w http.ResponseWriter, r *http.Request) {
	if !s.data.deleteExpense(requestUserID(r), chi.URLParam(r, "id")) {
		writeFail(w, http.StatusNotFound, "expense not found")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (s *Server) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories := s.data.categoriesByUser(requestUserID(r))
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, s.toCategoryResponse(c))
	}
	writeSuccess(w, http.StatusOK, out)
}

func (s *Server) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	c := s.data.categoryByID(requestUserID(r), chi.URLParam(r, "id"))
	if c == nil {
		writeFail(w, http.StatusNotFound, "category not found")
		return
	}
	writeSuccess(w, http.StatusOK, s.toCategoryResponse(c))
}

func (s *Server) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeValidationFail(w, "validation failed", map[string][]string{"name": {"name is required"}})
		return
	}
	c := s.data.createCategory(&storedCategory{
		Name:        req.Name,
		Description: req.Description,
		UserID:      requestUserID(r),
	})
	writeSuccess(w, http.StatusCreated, s.toCategoryResponse(c))
}

func (s *Server) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c := s.data.updateCategory(requestUserID(r), chi.URLParam(r, "id"), func(c *storedCategory) {
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Description != nil {
			c.Description = *req.Description
		}
	})
	if c == nil {
		writeFail(w, http.StatusNotFound, "category not found")
		return
	}
	writeSuccess(w, http.StatusOK, s.toCategoryResponse(c))
}

func (s *Server) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if !s.data.deleteCategory(requestUserID(r), chi.URLParam(r, "id")) {
		writeFail(w, http.StatusNotFound, "category not found")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}
