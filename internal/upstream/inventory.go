package upstream

import (
	"context"
	"fmt"

	"github.com/erazemk/labinventory/internal/model"
)

const inventoryPath = "/api/inventory"

type inventoryReply struct {
	Items []model.InventoryItem `json:"items"`
}

// ListInventory fetches all inventory items using token as the bearer
// credential. A missing items field yields an empty list.
func (c *Client) ListInventory(ctx context.Context, token string) ([]model.InventoryItem, error) {
	resp, err := c.getJSON(ctx, inventoryPath, token)
	if err != nil {
		return nil, fmt.Errorf("inventory request: %w", err)
	}
	if !resp.ok() {
		return nil, &StatusError{Op: OpInventory, Status: resp.status}
	}

	var reply inventoryReply
	if err := resp.decode(&reply); err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	if reply.Items == nil {
		reply.Items = []model.InventoryItem{}
	}
	return reply.Items, nil
}
