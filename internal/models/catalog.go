package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a lookup finds no matching record.
var ErrNotFound = errors.New("not found")

// ErrMissingFields is returned when a required field is empty after trimming.
var ErrMissingFields = errors.New("required fields are missing")

// ErrNoItems is returned when a service's item list has no usable lines.
var ErrNoItems = errors.New("at least one item is required")

// ErrInvalidPrice is returned when a price is not a non-negative whole number.
var ErrInvalidPrice = errors.New("price must be a non-negative whole number")

// durationUnits are the substrings that mark a duration label as already
// carrying a unit. Matching is case-insensitive.
var durationUnits = []string{"hs", "hora", "día"}

// Service is a repair category shown as a card on the public page.
type Service struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Icon  string   `json:"icon"`
	Items []string `json:"items"`
	Price int      `json:"price"`
}

// Price is one row of the public price table.
type Price struct {
	ID      int    `json:"id"`
	Service string `json:"service"`
	Price   int    `json:"price"`
	Time    string `json:"time"`
}

// ServiceInput holds the raw editor form fields for a service. Items is the
// multi-line text block, one item per line.
type ServiceInput struct {
	Name  string
	Icon  string
	Items string
	Price string
}

// PriceInput holds the raw editor form fields for a price entry.
type PriceInput struct {
	Service string
	Price   string
	Time    string
}

// BuildService validates the form input and returns the normalized record
// with the given id. The name is upper-cased; items are split per line.
func BuildService(id int, in ServiceInput) (Service, error) {
	name := strings.TrimSpace(in.Name)
	icon := strings.TrimSpace(in.Icon)
	rawPrice := strings.TrimSpace(in.Price)
	if name == "" || icon == "" || rawPrice == "" {
		return Service{}, ErrMissingFields
	}

	price, err := parsePrice(rawPrice)
	if err != nil {
		return Service{}, err
	}

	items := SplitItems(in.Items)
	if len(items) == 0 {
		return Service{}, ErrNoItems
	}

	return Service{
		ID:    id,
		Name:  strings.ToUpper(name),
		Icon:  icon,
		Items: items,
		Price: price,
	}, nil
}

// BuildPrice validates the form input and returns the normalized record with
// the given id. The duration label gets an "hs" suffix when it has no unit.
func BuildPrice(id int, in PriceInput) (Price, error) {
	service := strings.TrimSpace(in.Service)
	rawPrice := strings.TrimSpace(in.Price)
	duration := strings.TrimSpace(in.Time)
	if service == "" || rawPrice == "" || duration == "" {
		return Price{}, ErrMissingFields
	}

	price, err := parsePrice(rawPrice)
	if err != nil {
		return Price{}, err
	}

	return Price{
		ID:      id,
		Service: service,
		Price:   price,
		Time:    NormalizeDuration(duration),
	}, nil
}

// SplitItems turns a multi-line block into its non-blank, trimmed lines.
// Order is preserved and duplicates are kept.
func SplitItems(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// NormalizeDuration appends "hs" to a duration label that contains none of
// the recognized units. It never rejects input.
func NormalizeDuration(s string) string {
	lower := strings.ToLower(s)
	for _, unit := range durationUnits {
		if strings.Contains(lower, unit) {
			return s
		}
	}
	return s + "hs"
}

// Validate checks the record invariants of a service loaded from outside the
// editor (remote JSON, snapshots, fallback data).
func (s Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Icon) == "" {
		return fmt.Errorf("service %d: %w", s.ID, ErrMissingFields)
	}
	if len(s.Items) == 0 {
		return fmt.Errorf("service %d: %w", s.ID, ErrNoItems)
	}
	if s.Price < 0 {
		return fmt.Errorf("service %d: %w", s.ID, ErrInvalidPrice)
	}
	return nil
}

// Validate checks the record invariants of a price entry loaded from outside
// the editor.
func (p Price) Validate() error {
	if strings.TrimSpace(p.Service) == "" || strings.TrimSpace(p.Time) == "" {
		return fmt.Errorf("price %d: %w", p.ID, ErrMissingFields)
	}
	if p.Price < 0 {
		return fmt.Errorf("price %d: %w", p.ID, ErrInvalidPrice)
	}
	return nil
}

// ValidateServices checks every record plus id uniqueness across the collection.
func ValidateServices(services []Service) error {
	seen := make(map[int]bool, len(services))
	for _, s := range services {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.ID] {
			return fmt.Errorf("models: duplicate service id %d", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// ValidatePrices checks every record plus id uniqueness across the collection.
func ValidatePrices(prices []Price) error {
	seen := make(map[int]bool, len(prices))
	for _, p := range prices {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("models: duplicate price id %d", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// NextServiceID returns one more than the largest id in the collection, or 1
// when it is empty.
func NextServiceID(services []Service) int {
	next := 1
	for _, s := range services {
		if s.ID >= next {
			next = s.ID + 1
		}
	}
	return next
}

// NextPriceID returns one more than the largest id in the collection, or 1
// when it is empty.
func NextPriceID(prices []Price) int {
	next := 1
	for _, p := range prices {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

// JoinItems is the inverse of SplitItems, used to refill the editor form.
func JoinItems(items []string) string {
	return strings.Join(items, "\n")
}

func parsePrice(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidPrice
	}
	return n, nil
}
