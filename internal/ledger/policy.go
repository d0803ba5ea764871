package ledger

import (
	"fmt"
)

// TransactionType enumerates supported ledger movements. The set is closed:
// policy lookup fails for anything outside the five recognised values.
type TransactionType string

const (
	// TransactionTypeStockIn represents stock received into a location.
	TransactionTypeStockIn TransactionType = "stock_in"
	// TransactionTypeStockOut represents stock issued out of a location.
	TransactionTypeStockOut TransactionType = "stock_out"
	// TransactionTypeAdjust records a manual correction at a location.
	TransactionTypeAdjust TransactionType = "adjust"
	// TransactionTypeMove relocates stock between two locations.
	TransactionTypeMove TransactionType = "move"
	// TransactionTypeCount records a counted quantity at a location.
	TransactionTypeCount TransactionType = "count"
)

// QuantityBehavior tags how a type constrains the quantity field.
type QuantityBehavior string

const (
	// BehaviorPositive requires quantity > 0 at validation time.
	BehaviorPositive QuantityBehavior = "positive"
	// BehaviorNegative requires quantity < 0 at validation time.
	BehaviorNegative QuantityBehavior = "negative"
	// BehaviorAdjustment marks set-to-target semantics; the quantity sign is
	// not constrained, only the location requirements are.
	BehaviorAdjustment QuantityBehavior = "adjustment"
)

// LocationRole names which side of a movement a location plays.
type LocationRole string

const (
	// LocationSource is where stock leaves.
	LocationSource LocationRole = "source"
	// LocationDestination is where stock arrives.
	LocationDestination LocationRole = "destination"
)

// Policy is the fixed validation and behaviour rule set for one transaction
// type. The table is total over the five types and built once at package
// initialisation; there is no runtime registration path.
type Policy struct {
	Type               TransactionType
	Title              string
	Color              string
	Description        string
	Locations          []LocationRole
	Behavior           QuantityBehavior
	ChecksAvailability bool
}

// UnknownTransactionTypeError reports a lookup outside the closed type set.
type UnknownTransactionTypeError struct {
	Type TransactionType
}

func (e UnknownTransactionTypeError) Error() string {
	return fmt.Sprintf("ledger: unknown transaction type %q", string(e.Type))
}

var policies = map[TransactionType]Policy{
	TransactionTypeStockIn: {
		Type:        TransactionTypeStockIn,
		Title:       "Stock In",
		Color:       "green",
		Description: "Receive stock into a location.",
		Locations:   []LocationRole{LocationDestination},
		Behavior:    BehaviorPositive,
	},
	TransactionTypeStockOut: {
		Type:               TransactionTypeStockOut,
		Title:              "Stock Out",
		Color:              "red",
		Description:        "Issue stock out of a location.",
		Locations:          []LocationRole{LocationSource},
		Behavior:           BehaviorNegative,
		ChecksAvailability: true,
	},
	TransactionTypeAdjust: {
		Type:        TransactionTypeAdjust,
		Title:       "Adjust",
		Color:       "yellow",
		Description: "Correct the recorded quantity at a location.",
		Locations:   []LocationRole{LocationDestination},
		Behavior:    BehaviorAdjustment,
	},
	TransactionTypeMove: {
		Type:               TransactionTypeMove,
		Title:              "Move",
		Color:              "blue",
		Description:        "Relocate stock from one location to another.",
		Locations:          []LocationRole{LocationSource, LocationDestination},
		Behavior:           BehaviorPositive,
		ChecksAvailability: true,
	},
	TransactionTypeCount: {
		Type:        TransactionTypeCount,
		Title:       "Count",
		Color:       "gray",
		Description: "Record a physically counted quantity at a location.",
		Locations:   []LocationRole{LocationDestination},
		Behavior:    BehaviorPositive,
	},
}

// typeOrder fixes the order policies are listed in.
var typeOrder = []TransactionType{
	TransactionTypeStockIn,
	TransactionTypeStockOut,
	TransactionTypeAdjust,
	TransactionTypeMove,
	TransactionTypeCount,
}

// PolicyFor returns the policy for the given type. Lookup is case-sensitive
// against the fixed set.
func PolicyFor(t TransactionType) (Policy, error) {
	p, ok := policies[t]
	if !ok {
		return Policy{}, UnknownTransactionTypeError{Type: t}
	}
	return p, nil
}

// Types lists all recognised transaction types in display order.
func Types() []TransactionType {
	out := make([]TransactionType, len(typeOrder))
	copy(out, typeOrder)
	return out
}

// RequiresSource reports whether the policy demands a source location.
func (p Policy) RequiresSource() bool {
	return p.hasLocation(LocationSource)
}

// RequiresDestination reports whether the policy demands a destination location.
func (p Policy) RequiresDestination() bool {
	return p.hasLocation(LocationDestination)
}

// RequiresBothLocations reports whether both source and destination are required.
func (p Policy) RequiresBothLocations() bool {
	return p.RequiresSource() && p.RequiresDestination()
}

// RequiresSingleLocation reports whether exactly one location is required.
func (p Policy) RequiresSingleLocation() bool {
	return len(p.Locations) == 1
}

// QuantityShouldBePositive reports whether quantity must be > 0.
func (p Policy) QuantityShouldBePositive() bool {
	return p.Behavior == BehaviorPositive
}

// QuantityShouldBeNegative reports whether quantity must be < 0.
func (p Policy) QuantityShouldBeNegative() bool {
	return p.Behavior == BehaviorNegative
}

// QuantityIsAdjustment reports whether quantity carries set-to-target semantics.
func (p Policy) QuantityIsAdjustment() bool {
	return p.Behavior == BehaviorAdjustment
}

func (p Policy) hasLocation(role LocationRole) bool {
	for _, l := range p.Locations {
		if l == role {
			return true
		}
	}
	return false
}

// PolicyView is the plain key-value form of a policy sent to API clients.
type PolicyView struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Color       string   `json:"color"`
	Locations   []string `json:"locations"`
	Rules       []string `json:"rules"`
	Behavior    string   `json:"quantity_behavior"`
	Description string   `json:"description"`
}

// View serialises the policy for transport.
func (p Policy) View() PolicyView {
	locations := make([]string, 0, len(p.Locations))
	for _, l := range p.Locations {
		locations = append(locations, string(l))
	}
	rules := make([]string, 0, 3)
	for _, l := range p.Locations {
		rules = append(rules, fmt.Sprintf("%s location required", l))
	}
	switch p.Behavior {
	case BehaviorPositive:
		rules = append(rules, "quantity must be positive")
	case BehaviorNegative:
		rules = append(rules, "quantity must be negative")
	case BehaviorAdjustment:
		rules = append(rules, "quantity sets the recorded level")
	}
	if p.ChecksAvailability {
		rules = append(rules, "stock availability checked")
	}
	return PolicyView{
		Type:        string(p.Type),
		Title:       p.Title,
		Color:       p.Color,
		Locations:   locations,
		Rules:       rules,
		Behavior:    string(p.Behavior),
		Description: p.Description,
	}
}

// Policies returns all five policy views in display order.
func Policies() []PolicyView {
	views := make([]PolicyView, 0, len(typeOrder))
	for _, t := range typeOrder {
		views = append(views, policies[t].View())
	}
	return views
}
