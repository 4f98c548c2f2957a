package handlers

import (
	"time"

	"github.com/huertohogar/storefront/internal/domain"
	"github.com/huertohogar/storefront/internal/platform/format"
	"github.com/huertohogar/storefront/internal/services"
)

type productPayload struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Label          string          `json:"label,omitempty"`
	Description    string          `json:"description,omitempty"`
	Origin         string          `json:"origin,omitempty"`
	Unit           string          `json:"unit"`
	Price          int64           `json:"price"`
	DiscountPrice  *int64          `json:"discountPrice,omitempty"`
	UnitPrice      int64           `json:"unitPrice"`
	FormattedPrice string          `json:"formattedPrice"`
	Currency       string          `json:"currency"`
	Stock          int             `json:"stock"`
	InStock        bool            `json:"inStock"`
	LowStock       bool            `json:"lowStock"`
	AverageRating  float64         `json:"averageRating"`
	Reviews        []reviewPayload `json:"reviews"`
}

type reviewPayload struct {
	Author    string `json:"author"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func buildProductPayload(p services.Product) productPayload {
	payload := productPayload{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Label:          p.Label,
		Description:    p.Description,
		Origin:         p.Origin,
		Unit:           p.Unit,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		UnitPrice:      p.UnitPrice(),
		FormattedPrice: format.Price(p.UnitPrice()),
		Currency:       format.CurrencyCode,
		Stock:          p.Stock,
		InStock:        p.Stock > 0,
		LowStock:       p.BelowCritical(),
		Reviews:        make([]reviewPayload, 0, len(p.Reviews)),
	}
	var sum int
	for _, review := range p.Reviews {
		sum += review.Rating
		payload.Reviews = append(payload.Reviews, reviewPayload{
			Author:    review.Author,
			Rating:    review.Rating,
			Text:      review.Text,
			CreatedAt: formatTime(review.CreatedAt),
		})
	}
	if len(p.Reviews) > 0 {
		payload.AverageRating = float64(sum) / float64(len(p.Reviews))
	}
	return payload
}

type cartLinePayload struct {
	ProductID         string `json:"productId"`
	Name              string `json:"name"`
	Unit              string `json:"unit"`
	Price             int64  `json:"price"`
	Quantity          int    `json:"quantity"`
	Subtotal          int64  `json:"subtotal"`
	FormattedSubtotal string `json:"formattedSubtotal"`
}

type cartPayload struct {
	SessionID      string            `json:"sessionId"`
	Lines          []cartLinePayload `json:"lines"`
	ItemCount      int               `json:"itemCount"`
	Total          int64             `json:"total"`
	FormattedTotal string            `json:"formattedTotal"`
	Currency       string            `json:"currency"`
}

func buildCartPayload(sessionID string, cart services.CartEngine) cartPayload {
	lines := cart.Lines()
	payload := cartPayload{
		SessionID:      sessionID,
		Lines:          buildLinePayloads(lines),
		ItemCount:      cart.ItemCount(),
		Total:          cart.Total(),
		FormattedTotal: format.Price(cart.Total()),
		Currency:       format.CurrencyCode,
	}
	return payload
}

func buildLinePayloads(lines []services.CartLine) []cartLinePayload {
	out := make([]cartLinePayload, 0, len(lines))
	for _, line := range lines {
		out = append(out, cartLinePayload{
			ProductID:         line.ProductID,
			Name:              line.Name,
			Unit:              line.Unit,
			Price:             line.Price,
			Quantity:          line.Quantity,
			Subtotal:          line.Subtotal(),
			FormattedSubtotal: format.Price(line.Subtotal()),
		})
	}
	return out
}

type deliveryPayload struct {
	Method      string `json:"method"`
	Branch      string `json:"branch,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	Region      string `json:"region,omitempty"`
	Destination string `json:"destination"`
}

type orderPayload struct {
	ID             string            `json:"id"`
	CustomerID     string            `json:"customerId"`
	Lines          []cartLinePayload `json:"lines"`
	OriginalTotal  int64             `json:"originalTotal"`
	PointsUsed     int64             `json:"pointsUsed"`
	FinalTotal     int64             `json:"finalTotal"`
	FormattedTotal string            `json:"formattedTotal"`
	PointsEarned   int64             `json:"pointsEarned"`
	Delivery       *deliveryPayload  `json:"delivery,omitempty"`
	Status         string            `json:"status"`
	PlacedAt       string            `json:"placedAt"`
	UpdatedAt      string            `json:"updatedAt,omitempty"`
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:             order.ID,
		CustomerID:     order.CustomerID,
		Lines:          buildLinePayloads(order.Lines),
		OriginalTotal:  order.OriginalTotal,
		PointsUsed:     order.PointsUsed,
		FinalTotal:     order.FinalTotal,
		FormattedTotal: format.Price(order.FinalTotal),
		PointsEarned:   order.PointsEarned,
		Status:         string(order.Status),
		PlacedAt:       formatTime(order.PlacedAt),
		UpdatedAt:      formatTime(order.UpdatedAt),
	}
	switch d := order.Delivery.(type) {
	case domain.BranchPickup:
		payload.Delivery = &deliveryPayload{Method: string(d.DeliveryMethod()), Branch: d.Branch, Destination: d.Describe()}
	case domain.HomeDelivery:
		payload.Delivery = &deliveryPayload{Method: string(d.DeliveryMethod()), Street: d.Street, City: d.City, Region: d.Region, Destination: d.Describe()}
	}
	return payload
}

func buildOrderPayloads(orders []services.Order) []orderPayload {
	out := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		out = append(out, buildOrderPayload(order))
	}
	return out
}

type reportPayload struct {
	Sales     salesReportPayload     `json:"sales"`
	Inventory inventoryReportPayload `json:"inventory"`
}

type salesReportPayload struct {
	TotalSales          int64          `json:"totalSales"`
	FormattedTotalSales string         `json:"formattedTotalSales"`
	OrderCount          int            `json:"orderCount"`
	ByStatus            map[string]int `json:"byStatus"`
}

type inventoryReportPayload struct {
	TotalStock int              `json:"totalStock"`
	LowStock   []productPayload `json:"lowStock"`
}

func buildReportPayload(sales services.SalesReport, inventory services.InventoryReport) reportPayload {
	byStatus := make(map[string]int, len(sales.ByStatus))
	for status, count := range sales.ByStatus {
		byStatus[string(status)] = count
	}
	lowStock := make([]productPayload, 0, len(inventory.LowStock))
	for _, product := range inventory.LowStock {
		lowStock = append(lowStock, buildProductPayload(product))
	}
	return reportPayload{
		Sales: salesReportPayload{
			TotalSales:          sales.TotalSales,
			FormattedTotalSales: format.Price(sales.TotalSales),
			OrderCount:          sales.OrderCount,
			ByStatus:            byStatus,
		},
		Inventory: inventoryReportPayload{
			TotalStock: inventory.TotalStock,
			LowStock:   lowStock,
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
