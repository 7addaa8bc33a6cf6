package memstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/inventory"
	"github.com/ABH36/Machine-test/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, vendorID, stock int) models.Product {
	t.Helper()
	p := models.Product{VendorID: vendorID, Name: "Lamp", Description: "Warm light", Price: 20, Stock: stock, Category: models.DefaultCategory}
	require.NoError(t, s.CreateProduct(context.Background(), &p))
	return p
}

func TestStore_Reserve_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 1, 10)

	reserved, err := s.Reserve(ctx, []inventory.Line{{ProductID: p.ID, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, 7, reserved[0].Stock)

	_, err = s.Reserve(ctx, []inventory.Line{{ProductID: p.ID, Quantity: 8}})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
}

func TestStore_Reserve_AllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seedProduct(t, s, 1, 5)
	b := seedProduct(t, s, 2, 1)

	_, err := s.Reserve(ctx, []inventory.Line{
		{Index: 0, ProductID: a.ID, Quantity: 2},
		{Index: 1, ProductID: b.ID, Quantity: 2},
	})
	require.Error(t, err)
	assert.Equal(t, "items[1]", apperr.Public(err).Field)

	got, _ := s.GetProduct(ctx, a.ID)
	assert.Equal(t, 5, got.Stock, "first line must not be decremented")
}

func TestStore_Reserve_UnknownProduct(t *testing.T) {
	s := New()

	_, err := s.Reserve(context.Background(), []inventory.Line{{ProductID: 42, Quantity: 1}})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStore_Reserve_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 1, 5)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Reserve(ctx, []inventory.Line{{ProductID: p.ID, Quantity: 1}}); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	got, _ := s.GetProduct(ctx, p.ID)
	assert.Equal(t, int32(5), succeeded.Load())
	assert.Equal(t, 0, got.Stock)
}

func TestStore_Release(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, 1, 4)

	_, err := s.Reserve(ctx, []inventory.Line{{ProductID: p.ID, Quantity: 4}})
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, []inventory.Line{{ProductID: p.ID, Quantity: 4}, {ProductID: 99, Quantity: 1}}))

	got, _ := s.GetProduct(ctx, p.ID)
	assert.Equal(t, 4, got.Stock)
}

func TestStore_CreateUser_DuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &models.User{Name: "A", Email: "a@example.com", Role: models.RoleUser}))
	err := s.CreateUser(ctx, &models.User{Name: "B", Email: "A@Example.com", Role: models.RoleUser})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestStore_DeleteUser_RemovesVendorProducts(t *testing.T) {
	s := New()
	ctx := context.Background()
	vendor := models.User{Name: "V", Email: "v@example.com", Role: models.RoleVendor}
	require.NoError(t, s.CreateUser(ctx, &vendor))
	seedProduct(t, s, vendor.ID, 3)
	seedProduct(t, s, vendor.ID+100, 3)

	require.NoError(t, s.DeleteUser(ctx, vendor.ID))

	products, _ := s.ListProducts(ctx)
	assert.Len(t, products, 1)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(s.DeleteUser(ctx, vendor.ID)))
}

func TestStore_ListVendorProducts_NewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	first := seedProduct(t, s, 7, 1)
	second := seedProduct(t, s, 7, 1)

	products, err := s.ListVendorProducts(ctx, 7)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, second.ID, products[0].ID)
	assert.Equal(t, first.ID, products[1].ID)
}

func TestStore_Orders(t *testing.T) {
	s := New()
	ctx := context.Background()

	o1 := models.Order{BuyerID: 1, Status: models.OrderStatusPending, Items: []models.OrderItem{{ProductID: 1, VendorID: 2, Quantity: 1, Price: 5}}}
	o2 := models.Order{BuyerID: 3, Status: models.OrderStatusPending}
	require.NoError(t, s.CreateOrder(ctx, &o1))
	require.NoError(t, s.CreateOrder(ctx, &o2))

	mine, _ := s.ListBuyerOrders(ctx, 1)
	require.Len(t, mine, 1)
	assert.Equal(t, o1.ID, mine[0].ID)

	all, _ := s.ListOrders(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, o2.ID, all[0].ID)

	// callers must not be able to mutate stored items through a returned copy
	mine[0].Items[0].Quantity = 99
	got, _ := s.GetOrder(ctx, o1.ID)
	assert.Equal(t, 1, got.Items[0].Quantity)

	updated, err := s.UpdateOrderStatus(ctx, o1.ID, models.OrderStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusApproved, updated.Status)

	_, err = s.UpdateOrderStatus(ctx, 999, models.OrderStatusApproved)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStore_TransitionOrderStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	o := models.Order{BuyerID: 3, Status: models.OrderStatusPending}
	require.NoError(t, s.CreateOrder(ctx, &o))

	updated, err := s.TransitionOrderStatus(ctx, o.ID, models.OrderStatusPending, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	_, err = s.TransitionOrderStatus(ctx, o.ID, models.OrderStatusPending, models.OrderStatusApproved)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)

	_, err = s.TransitionOrderStatus(ctx, 999, models.OrderStatusPending, models.OrderStatusApproved)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
