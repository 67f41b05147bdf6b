// Package pricing computes order prices from catalog data. Every function is
// pure: the same input always yields the same result.
package pricing

import (
	"fmt"

	"food-delivery-platform/apperr"
	"food-delivery-platform/models"

	"github.com/shopspring/decimal"
)

// Group is an option group as attached to one product, overrides already applied.
type Group struct {
	ID        uint
	Name      string
	Required  bool
	MinSelect int
	MaxSelect int // 0 means unlimited
	FreeQuota int
	Options   []Option
}

type Option struct {
	ID         uint
	Name       string
	PriceDelta decimal.Decimal
	Active     bool
}

type Product struct {
	ID        uint
	Name      string
	BasePrice decimal.Decimal
	Groups    []Group
}

// Selection is one option instance picked by the customer, in the order it was added.
type Selection struct {
	OptionID uint
	Quantity int
}

type Line struct {
	Product    Product
	Quantity   int
	Selections []Selection
}

type PricedOption struct {
	OptionID   uint
	GroupID    uint
	GroupName  string
	OptionName string
	Quantity   int
	// PriceDeltaApplied is the amount charged for this selection, zero when
	// it fell entirely inside the group's free quota.
	PriceDeltaApplied decimal.Decimal
}

type PricedLine struct {
	ProductID uint
	Name      string
	BasePrice decimal.Decimal
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
	Options   []PricedOption
}

type Restaurant struct {
	AcceptingOrders bool
	DeliveryFee     decimal.Decimal
	MinimumOrder    decimal.Decimal
}

type Totals struct {
	Lines       []PricedLine
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// MaxQuantity bounds item quantities and the selections counted against one
// group on a line.
const MaxQuantity = 99

type optionRef struct {
	group  int
	option Option
}

// PriceLine computes the unit price and line total of one cart line.
func PriceLine(line Line) (PricedLine, error) {
	p := line.Product
	if line.Quantity < 1 {
		return PricedLine{}, apperr.Validation(fmt.Sprintf("quantity for %q must be at least 1", p.Name))
	}
	if line.Quantity > MaxQuantity {
		return PricedLine{}, apperr.Validation(fmt.Sprintf("quantity for %q must be at most %d", p.Name, MaxQuantity))
	}

	index := make(map[uint]optionRef)
	for gi, g := range p.Groups {
		for _, o := range g.Options {
			index[o.ID] = optionRef{group: gi, option: o}
		}
	}

	used := make([]int, len(p.Groups))
	unit := p.BasePrice
	priced := make([]PricedOption, 0, len(line.Selections))

	for _, sel := range line.Selections {
		ref, ok := index[sel.OptionID]
		if !ok {
			return PricedLine{}, apperr.Validation(fmt.Sprintf("option %d is not available for %q", sel.OptionID, p.Name))
		}
		if !ref.option.Active {
			return PricedLine{}, apperr.Validation(fmt.Sprintf("option %q is not available", ref.option.Name))
		}
		if sel.Quantity < 1 {
			return PricedLine{}, apperr.Validation(fmt.Sprintf("quantity for option %q must be at least 1", ref.option.Name))
		}

		g := p.Groups[ref.group]
		if sel.Quantity > MaxQuantity-used[ref.group] {
			return PricedLine{}, apperr.Validation(fmt.Sprintf("%q allows at most %d selection(s)", g.Name, MaxQuantity))
		}
		if g.MaxSelect > 0 && used[ref.group]+sel.Quantity > g.MaxSelect {
			return PricedLine{}, apperr.Validation(fmt.Sprintf("%q allows at most %d selection(s)", g.Name, g.MaxSelect))
		}
		free := g.FreeQuota - used[ref.group]
		if free < 0 {
			free = 0
		}
		if free > sel.Quantity {
			free = sel.Quantity
		}
		charged := sel.Quantity - free
		delta := ref.option.PriceDelta.Mul(decimal.NewFromInt(int64(charged)))
		used[ref.group] += sel.Quantity
		unit = unit.Add(delta)

		priced = append(priced, PricedOption{
			OptionID:          ref.option.ID,
			GroupID:           g.ID,
			GroupName:         g.Name,
			OptionName:        ref.option.Name,
			Quantity:          sel.Quantity,
			PriceDeltaApplied: delta,
		})
	}

	for gi, g := range p.Groups {
		if err := checkGroup(g, used[gi]); err != nil {
			return PricedLine{}, err
		}
	}

	return PricedLine{
		ProductID: p.ID,
		Name:      p.Name,
		BasePrice: p.BasePrice,
		UnitPrice: unit,
		Quantity:  line.Quantity,
		LineTotal: unit.Mul(decimal.NewFromInt(int64(line.Quantity))),
		Options:   priced,
	}, nil
}

func checkGroup(g Group, count int) error {
	least := g.MinSelect
	if g.Required && least < 1 {
		least = 1
	}
	if count < least {
		return apperr.Validation(fmt.Sprintf("%q requires at least %d selection(s)", g.Name, least))
	}
	if g.MaxSelect > 0 && count > g.MaxSelect {
		return apperr.Validation(fmt.Sprintf("%q allows at most %d selection(s)", g.Name, g.MaxSelect))
	}
	return nil
}

// PriceOrder prices every line and applies the restaurant's order rules.
func PriceOrder(r Restaurant, fulfillment models.FulfillmentType, lines []Line) (Totals, error) {
	if !r.AcceptingOrders {
		return Totals{}, apperr.Validation("restaurant is not accepting orders")
	}
	if !fulfillment.Valid() {
		return Totals{}, apperr.Validation("fulfillment must be DELIVERY or PICKUP")
	}
	if len(lines) == 0 {
		return Totals{}, apperr.Validation("order must contain at least one item")
	}

	totals := Totals{Lines: make([]PricedLine, 0, len(lines))}
	for _, l := range lines {
		pl, err := PriceLine(l)
		if err != nil {
			return Totals{}, err
		}
		totals.Lines = append(totals.Lines, pl)
		totals.Subtotal = totals.Subtotal.Add(pl.LineTotal)
	}

	if r.MinimumOrder.IsPositive() && totals.Subtotal.LessThan(r.MinimumOrder) {
		return Totals{}, apperr.Validation(fmt.Sprintf("minimum order is %s, subtotal is %s",
			r.MinimumOrder.StringFixed(2), totals.Subtotal.StringFixed(2)))
	}

	if fulfillment == models.FulfillmentDelivery {
		totals.DeliveryFee = r.DeliveryFee
	}
	totals.Total = totals.Subtotal.Add(totals.DeliveryFee)
	return totals, nil
}

// FromCatalog converts a loaded product and its group links into pricing input.
// Inactive options are kept so a stale selection is reported as unavailable.
func FromCatalog(p models.Product) Product {
	out := Product{ID: p.ID, Name: p.Name, BasePrice: p.BasePrice}
	for _, link := range p.OptionGroups {
		minSelect, maxSelect, freeQuota := link.Effective()
		g := Group{
			ID:        link.OptionGroup.ID,
			Name:      link.OptionGroup.Name,
			Required:  link.OptionGroup.Required,
			MinSelect: minSelect,
			MaxSelect: maxSelect,
			FreeQuota: freeQuota,
		}
		for _, o := range link.OptionGroup.Options {
			g.Options = append(g.Options, Option{ID: o.ID, Name: o.Name, PriceDelta: o.PriceDelta, Active: o.Active})
		}
		out.Groups = append(out.Groups, g)
	}
	return out
}
