// Package memstore keeps users, products and orders in process memory. It is
// used for local runs and tests; a single mutex makes every operation atomic.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/inventory"
	"github.com/ABH36/Machine-test/models"
)

type Store struct {
	mu sync.RWMutex

	users    map[int]models.User
	products map[int]models.Product
	orders   map[int]models.Order

	nextUserID    int
	nextProductID int
	nextOrderID   int

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:         make(map[int]models.User),
		products:      make(map[int]models.Product),
		orders:        make(map[int]models.Order),
		nextUserID:    1,
		nextProductID: 1,
		nextOrderID:   1,
		now:           time.Now,
	}
}

// ---- users

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("User already exists")
		}
	}
	u.ID = s.nextUserID
	u.CreatedAt = s.now()
	s.nextUserID++
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *Store) DeleteUser(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return apperr.NotFound("User not found")
	}
	delete(s.users, id)
	for pid, p := range s.products {
		if p.VendorID == id {
			delete(s.products, pid)
		}
	}
	return nil
}

// ---- products

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p.ID = s.nextProductID
	p.CreatedAt = now
	p.UpdatedAt = now
	s.nextProductID++
	s.products[p.ID] = *p
	return nil
}

func (s *Store) GetProduct(_ context.Context, id int) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFound("Product not found")
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *Store) ListVendorProducts(_ context.Context, vendorID int) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Product, 0)
	for _, p := range s.products {
		if p.VendorID == vendorID {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return apperr.NotFound("Product not found")
	}
	p.VendorID = existing.VendorID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = *p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return apperr.NotFound("Product not found")
	}
	delete(s.products, id)
	return nil
}

// ---- inventory

// Reserve checks every line before decrementing any of them, under one lock.
func (s *Store) Reserve(_ context.Context, lines []inventory.Line) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range lines {
		var current *models.Product
		if p, ok := s.products[line.ProductID]; ok {
			current = &p
		}
		if err := inventory.Check(line, current); err != nil {
			return nil, err
		}
	}

	now := s.now()
	reserved := make([]models.Product, len(lines))
	for i, line := range lines {
		p := s.products[line.ProductID]
		p.Stock -= line.Quantity
		p.UpdatedAt = now
		s.products[p.ID] = p
		reserved[i] = p
	}
	return reserved, nil
}

// Release returns stock for lines. Products deleted since the reservation
// are skipped.
func (s *Store) Release(_ context.Context, lines []inventory.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			continue
		}
		p.Stock += line.Quantity
		s.products[p.ID] = p
	}
	return nil
}

// ---- orders

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	o.ID = s.nextOrderID
	o.CreatedAt = now
	o.UpdatedAt = now
	s.nextOrderID++
	s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) ListOrders(_ context.Context) ([]models.Order, error) {
	return s.listOrders(func(models.Order) bool { return true }), nil
}

func (s *Store) ListBuyerOrders(_ context.Context, buyerID int) ([]models.Order, error) {
	return s.listOrders(func(o models.Order) bool { return o.BuyerID == buyerID }), nil
}

func (s *Store) listOrders(keep func(models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			res = append(res, cloneOrder(o))
		}
	}
	// ids grow with creation time, so this is newest first
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res
}

func (s *Store) UpdateOrderStatus(_ context.Context, id int, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	o.Status = status
	o.UpdatedAt = s.now()
	s.orders[id] = o

	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) TransitionOrderStatus(_ context.Context, id int, from, to models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	if o.Status != from {
		return nil, apperr.Conflict("Order status changed from %s to %s, please retry", from, o.Status)
	}
	o.Status = to
	o.UpdatedAt = s.now()
	s.orders[id] = o

	o = cloneOrder(o)
	return &o, nil
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}
