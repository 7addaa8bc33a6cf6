package orders

import "github.com/ABH36/Machine-test/models"

// ProjectForVendor returns the part of order that belongs to vendorID, or nil
// when none of its items do. The projection total covers only the vendor's
// items; status and customer come from the parent order.
func ProjectForVendor(order models.Order, vendorID int) *models.VendorOrderView {
	var items []models.OrderItem
	var total float64
	for _, item := range order.Items {
		if item.VendorID != vendorID {
			continue
		}
		items = append(items, item)
		total += item.Subtotal()
	}
	if len(items) == 0 {
		return nil
	}
	return &models.VendorOrderView{
		OrderID:     order.ID,
		Customer:    order.BuyerID,
		Items:       items,
		TotalAmount: total,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
	}
}

// ProjectAll projects every order for vendorID, dropping orders without any
// of the vendor's items. Order is preserved.
func ProjectAll(orders []models.Order, vendorID int) []models.VendorOrderView {
	views := make([]models.VendorOrderView, 0)
	for _, o := range orders {
		if v := ProjectForVendor(o, vendorID); v != nil {
			views = append(views, *v)
		}
	}
	return views
}
