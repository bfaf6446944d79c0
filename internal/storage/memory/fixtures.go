package memory

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

//go:embed fixtures/seed.yaml
var defaultSeed []byte

// Fixtures — начальные данные хранилища.
type Fixtures struct {
	Customers  []domain.Customer
	Orders     []domain.Order
	OrderItems []domain.OrderItem
}

type seedFile struct {
	Customers []struct {
		ID   int64  `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"customers"`
	Orders []struct {
		ID              int64 `yaml:"id"`
		CustomerID      int64 `yaml:"customer_id"`
		PlacedMonthsAgo int   `yaml:"placed_months_ago"`
	} `yaml:"orders"`
	OrderItems []struct {
		ID                 int64  `yaml:"id"`
		OrderID            int64  `yaml:"order_id"`
		ProductID          int64  `yaml:"product_id"`
		Quantity           int32  `yaml:"quantity"`
		PriceMinor         int64  `yaml:"price_minor"`
		AmountMinor        *int64 `yaml:"amount_minor"`
		Status             string `yaml:"status"`
		SubmittedDaysAgo   *int   `yaml:"submitted_days_ago"`
		ShippedDaysAgo     *int   `yaml:"shipped_days_ago"`
		BackorderedDaysAgo *int   `yaml:"backordered_days_ago"`
	} `yaml:"order_items"`
}

var statusByName = map[string]domain.OrderStatusID{
	"pending":     domain.StatusPending,
	"submitted":   domain.StatusSubmitted,
	"backordered": domain.StatusBackordered,
	"shipped":     domain.StatusShipped,
}

// DefaultFixtures разбирает встроенный набор данных. Даты считаются относительно now.
func DefaultFixtures(now time.Time) (Fixtures, error) {
	return ParseFixtures(defaultSeed, now)
}

// LoadFixturesFile читает набор данных из YAML-файла.
func LoadFixturesFile(path string, now time.Time) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures file: %w", err)
	}
	return ParseFixtures(data, now)
}

// ParseFixtures разбирает YAML с клиентами, заказами и позициями.
func ParseFixtures(data []byte, now time.Time) (Fixtures, error) {
	var raw seedFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Fixtures{}, fmt.Errorf("unmarshal fixtures: %w", err)
	}

	var f Fixtures
	for _, c := range raw.Customers {
		f.Customers = append(f.Customers, domain.Customer{ID: c.ID, Name: c.Name})
	}
	for _, o := range raw.Orders {
		f.Orders = append(f.Orders, domain.Order{
			ID:         o.ID,
			CustomerID: o.CustomerID,
			OrderDate:  now.AddDate(0, -o.PlacedMonthsAgo, 0),
		})
	}
	for _, i := range raw.OrderItems {
		status, ok := statusByName[strings.ToLower(strings.TrimSpace(i.Status))]
		if !ok {
			return Fixtures{}, fmt.Errorf("order item %d: %w: %q", i.ID, domain.ErrUnknownOrderStatus, i.Status)
		}
		amount := int64(i.Quantity) * i.PriceMinor
		if i.AmountMinor != nil {
			amount = *i.AmountMinor
		}
		f.OrderItems = append(f.OrderItems, domain.OrderItem{
			ID:            i.ID,
			OrderID:       i.OrderID,
			ProductID:     i.ProductID,
			Quantity:      i.Quantity,
			PriceMinor:    i.PriceMinor,
			AmountMinor:   amount,
			StatusID:      status,
			SubmittedAt:   daysAgo(now, i.SubmittedDaysAgo),
			ShippedAt:     daysAgo(now, i.ShippedDaysAgo),
			BackorderedAt: daysAgo(now, i.BackorderedDaysAgo),
		})
	}

	if err := checkUniqueIDs(f); err != nil {
		return Fixtures{}, err
	}
	return f, nil
}

func daysAgo(now time.Time, days *int) time.Time {
	if days == nil {
		return time.Time{}
	}
	return now.AddDate(0, 0, -*days)
}

func checkUniqueIDs(f Fixtures) error {
	seen := make(map[int64]struct{})
	for _, c := range f.Customers {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate customer id %d in fixtures", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	clear(seen)
	for _, o := range f.Orders {
		if _, dup := seen[o.ID]; dup {
			return fmt.Errorf("duplicate order id %d in fixtures", o.ID)
		}
		seen[o.ID] = struct{}{}
	}
	clear(seen)
	for _, i := range f.OrderItems {
		if _, dup := seen[i.ID]; dup {
			return fmt.Errorf("duplicate order item id %d in fixtures", i.ID)
		}
		seen[i.ID] = struct{}{}
	}
	return nil
}
