package orders

import (
	"sort"

	"github.com/ABH36/Machine-test/models"
)

// RevenueRecognized reports whether orders in status s count toward revenue.
// Only approved orders do; shipped and delivered orders are excluded.
func RevenueRecognized(s models.OrderStatus) bool {
	return s == models.OrderStatusApproved
}

// PlatformRevenue sums the stored totals of approved orders.
func PlatformRevenue(orders []models.Order) float64 {
	var total float64
	for _, o := range orders {
		if RevenueRecognized(o.Status) {
			total += o.TotalAmount
		}
	}
	return total
}

// VendorRevenue sums the vendor-projected totals of approved orders.
func VendorRevenue(orders []models.Order, vendorID int) float64 {
	var total float64
	for _, o := range orders {
		if !RevenueRecognized(o.Status) {
			continue
		}
		if v := ProjectForVendor(o, vendorID); v != nil {
			total += v.TotalAmount
		}
	}
	return total
}

// RevenueByVendor computes VendorRevenue for every vendor that appears in an
// approved order, sorted by vendor id.
func RevenueByVendor(orders []models.Order) []models.VendorRevenue {
	byVendor := make(map[int]float64)
	for _, o := range orders {
		if !RevenueRecognized(o.Status) {
			continue
		}
		for _, item := range o.Items {
			byVendor[item.VendorID] += item.Subtotal()
		}
	}

	out := make([]models.VendorRevenue, 0, len(byVendor))
	for id, rev := range byVendor {
		out = append(out, models.VendorRevenue{VendorID: id, Revenue: rev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VendorID < out[j].VendorID })
	return out
}
