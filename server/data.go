package server

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// storedUser is the dev server's user record. Passwords are bcrypt
// hashed even here so the signup/signin flow behaves like the real
// backend.
type storedUser struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash []byte
	DateOfBirth  string
	PlaceOfBirth string
	Verified     bool
	PendingOTP   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type storedCategory struct {
	ID          string
	Name        string
	Description string
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type storedExpense struct {
	ID          string
	Amount      float64
	Description string
	Date        time.Time
	CategoryID  string
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// dataStore is the whole backend state: users, categories, expenses.
type dataStore struct {
	lock       sync.RWMutex
	users      map[string]*storedUser // by ID
	emails     map[string]string      // email -> user ID
	categories map[string]*storedCategory
	expenses   map[string]*storedExpense
}

func newDataStore() *dataStore {
	return &dataStore{
		users:      make(map[string]*storedUser),
		emails:     make(map[string]string),
		categories: make(map[string]*storedCategory),
		expenses:   make(map[string]*storedExpense),
	}
}

func (d *dataStore) createUser(u *storedUser) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, exists := d.emails[u.Email]; exists {
		return false
	}
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	d.users[u.ID] = u
	d.emails[u.Email] = u.ID
	return true
}

func (d *dataStore) userByEmail(email string) *storedUser {
	d.lock.RLock()
	defer d.lock.RUnlock()
	id, ok := d.emails[email]
	if !ok {
		return nil
	}
	return d.users[id]
}

func (d *dataStore) userByID(id string) *storedUser {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.users[id]
}

func (d *dataStore) updateUser(id string, update func(*storedUser)) *storedUser {
	d.lock.Lock()
	defer d.lock.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	update(u)
	u.UpdatedAt = time.Now().UTC()
	return u
}

func (d *dataStore) createCategory(c *storedCategory) *storedCategory {
	d.lock.Lock()
	defer d.lock.Unlock()
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	d.categories[c.ID] = c
	return c
}

func (d *dataStore) categoryByID(userID, id string) *storedCategory {
	d.lock.RLock()
	defer d.lock.RUnlock()
	c, ok := d.categories[id]
	if !ok || c.UserID != userID {
		return nil
	}
	return c
}

func (d *dataStore) categoriesByUser(userID string) []*storedCategory {
	d.lock.RLock()
	defer d.lock.RUnlock()
	var out []*storedCategory
	for _, c := range d.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (d *dataStore) updateCategory(userID, id string, update func(*storedCategory)) *storedCategory {
	d.lock.Lock()
	defer d.lock.Unlock()
	c, ok := d.categories[id]
	if !ok || c.UserID != userID {
		return nil
	}
	update(c)
	c.UpdatedAt = time.Now().UTC()
	return c
}

func (d *dataStore) deleteCategory(userID, id string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	c, ok := d.categories[id]
	if !ok || c.UserID != userID {
		return false
	}
	delete(d.categories, id)
	return true
}

// expensesForCategory returns the IDs of expenses filed under a
// category, oldest first.
func (d *dataStore) expensesForCategory(categoryID string) []string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	var out []string
	for _, e := range d.expenses {
		if e.CategoryID == categoryID {
			out = append(out, e.ID)
		}
	}
	sort.Strings(out)
	return out
}

func (d *dataStore) createExpense(e *storedExpense) *storedExpense {
	d.lock.Lock()
	defer d.lock.Unlock()
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	d.expenses[e.ID] = e
	return e
}

func (d *dataStore) expenseByID(userID, id string) *storedExpense {
	d.lock.RLock()
	defer d.lock.RUnlock()
	e, ok := d.expenses[id]
	if !ok || e.UserID != userID {
		return nil
	}
	return e
}

func (d *dataStore) expensesByUser(userID string) []*storedExpense {
	d.lock.RLock()
	defer d.lock.RUnlock()
	var out []*storedExpense
	for _, e := range d.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (d *dataStore) updateExpense(userID, id string, update func(*storedExpense)) *storedExpense {
	d.lock.Lock()
	defer d.lock.Unlock()
	e, ok := d.expenses[id]
	if !ok || e.UserID != userID {
		return nil
	}
	update(e)
	e.UpdatedAt = time.Now().UTC()
	return e
}

func (d *dataStore) deleteExpense(userID, id string) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	e, ok := d.expenses[id]
	if !ok || e.UserID != userID {
		return false
	}
	delete(d.expenses, id)
	return true
}
