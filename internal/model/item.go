package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ItemID is an inventory item identifier. The inventory service may send it
// as a JSON number or a string.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// InventoryItem is one row of the inventory list. Stock values may be fractional.
type InventoryItem struct {
	ID            ItemID  `json:"id"`
	Name          string  `json:"name"`
	CategoryName  string  `json:"category_name"`
	CurrentStock  float64 `json:"current_stock"`
	CriticalLevel float64 `json:"critical_level"`
	Unit          string  `json:"unit"`
}

// UncategorizedLabel is shown when an item has no category.
const UncategorizedLabel = "Uncategorized"

// Category returns the display category.
func (i InventoryItem) Category() string {
	if i.CategoryName == "" {
		return UncategorizedLabel
	}
	return i.CategoryName
}

// StockStatus is the derived stock state of an item.
type StockStatus string

// Stock statuses.
const (
	StockIn  StockStatus = "in"
	StockLow StockStatus = "low"
	StockOut StockStatus = "out"
)

// Label returns the badge text for a status.
func (s StockStatus) Label() string {
	switch s {
	case StockIn:
		return "✅ In Stock"
	case StockLow:
		return "⚠️ Low Stock"
	default:
		return "❌ Out of Stock"
	}
}

// Status derives the stock status. The checks run in order, so an item with
// positive stock at or below its critical level is low.
func (i InventoryItem) Status() StockStatus {
	switch {
	case i.CurrentStock > i.CriticalLevel:
		return StockIn
	case i.CurrentStock > 0:
		return StockLow
	default:
		return StockOut
	}
}

// IsLow reports whether the item counts toward the low-stock total. Items
// that are out of stock are included.
func (i InventoryItem) IsLow() bool {
	return i.CurrentStock <= i.CriticalLevel
}

// FormatQuantity renders a stock value without trailing zeros.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Summary holds the dashboard tile counts.
type Summary struct {
	Total    int
	LowStock int
}

// Summarize computes the tile counts for a list of items.
func Summarize(items []InventoryItem) Summary {
	s := Summary{Total: len(items)}
	for _, item := range items {
		if item.IsLow() {
			s.LowStock++
		}
	}
	return s
}
