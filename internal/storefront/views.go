package storefront

import (
	"fmt"
	"time"

	"campus-express/internal/domain/models"
	"campus-express/internal/orders"
	"campus-express/internal/pickup"
)

// View types decouple the JSON surface from the domain structs: money is
// rendered with two fixed decimals and internal ids stay internal.

type stallView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	LeadTimeMinutes int    `json:"lead_time_minutes"`
	ClosingTime     string `json:"closing_time,omitempty"`
}

func toStallView(s models.Stall) stallView {
	v := stallView{ID: s.ID, Name: s.Name, LeadTimeMinutes: s.AverageLeadTime}
	if s.ClosingMinutes != nil {
		c := pickup.ClockFromMinutes(*s.ClosingMinutes)
		v.ClosingTime = fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
	}
	return v
}

type menuItemView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
}

type menuView struct {
	Food      []menuItemView `json:"food"`
	Beverages []menuItemView `json:"beverages"`
}

func toMenuView(m models.Menu) menuView {
	v := menuView{
		Food:      make([]menuItemView, 0, len(m.Food)),
		Beverages: make([]menuItemView, 0, len(m.Beverages)),
	}
	for _, item := range m.Food {
		v.Food = append(v.Food, toMenuItemView(item))
	}
	for _, item := range m.Beverages {
		v.Beverages = append(v.Beverages, toMenuItemView(item))
	}
	return v
}

func toMenuItemView(item models.MenuItem) menuItemView {
	return menuItemView{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price.StringFixed(2),
	}
}

type slotView struct {
	Label    string    `json:"label"`
	PickupAt time.Time `json:"pickup_at"`
}

type cartLineView struct {
	CartItemID int64  `json:"cart_item_id"`
	ItemID     int64  `json:"item_id"`
	Name       string `json:"name"`
	UnitPrice  string `json:"unit_price"`
	Quantity   int    `json:"quantity"`
	Subtotal   string `json:"subtotal"`
}

type stallCartView struct {
	StallID   int64          `json:"stall_id"`
	StallName string         `json:"stall_name"`
	Lines     []cartLineView `json:"lines"`
	Total     string         `json:"total"`
}

func toStallCartView(c models.StallCart) stallCartView {
	v := stallCartView{
		StallID:   c.StallID,
		StallName: c.StallName,
		Lines:     make([]cartLineView, 0, len(c.Lines)),
		Total:     c.Total.StringFixed(2),
	}
	for _, line := range c.Lines {
		v.Lines = append(v.Lines, cartLineView{
			CartItemID: line.CartItemID,
			ItemID:     line.ItemID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice.StringFixed(2),
			Quantity:   line.Quantity,
			Subtotal:   line.Subtotal().StringFixed(2),
		})
	}
	return v
}

type orderView struct {
	TransactionID string    `json:"transaction_id"`
	StallID       int64     `json:"stall_id"`
	Status        string    `json:"status"`
	PickupTime    time.Time `json:"pickup_time"`
	TotalCost     string    `json:"total_cost"`
	IsPaid        bool      `json:"is_paid"`
	IsComplete    bool      `json:"is_complete"`
	CreatedAt     time.Time `json:"created_at"`
}

func toOrderView(o models.Order) orderView {
	return orderView{
		TransactionID: o.TransactionID,
		StallID:       o.StallID,
		Status:        o.Status,
		PickupTime:    o.PickupTime,
		TotalCost:     o.TotalCost.StringFixed(2),
		IsPaid:        o.IsPaid,
		IsComplete:    o.IsComplete,
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderViews(list []models.Order) []orderView {
	views := make([]orderView, 0, len(list))
	for _, o := range list {
		views = append(views, toOrderView(o))
	}
	return views
}

type orderItemView struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type summaryView struct {
	Order                orderView       `json:"order"`
	Items                []orderItemView `json:"items"`
	EstimatedWaitMinutes int             `json:"estimated_wait_minutes"`
}

func toSummaryView(s orders.Summary) summaryView {
	v := summaryView{
		Order:                toOrderView(s.Order),
		Items:                make([]orderItemView, 0, len(s.Items)),
		EstimatedWaitMinutes: s.EstimatedMinutes,
	}
	for _, item := range s.Items {
		v.Items = append(v.Items, orderItemView{
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
		})
	}
	return v
}

type overviewView struct {
	Blacklisted bool        `json:"blacklisted"`
	Orders      []orderView `json:"orders"`
	Unpaid      []orderView `json:"unpaid,omitempty"`
}
