// Package inventory tracks part stock per warehouse bin and performs the
// atomic deductions behind stock-updating invoices.
package inventory

import "time"

// Bin is the stock balance for one item in one warehouse.
type Bin struct {
	ItemCode  string    `json:"item_code"`
	Warehouse string    `json:"warehouse"`
	ActualQty float64   `json:"actual_qty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Movement is one quantity change against a bin.
type Movement struct {
	ItemCode  string  `json:"item_code"`
	Warehouse string  `json:"warehouse"`
	Qty       float64 `json:"qty"`
}
