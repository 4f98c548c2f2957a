package domain

import "strings"

// DeliveryMethod names a delivery variant.
type DeliveryMethod string

const (
	DeliveryBranchPickup DeliveryMethod = "branch_pickup"
	DeliveryHomeDelivery DeliveryMethod = "home_delivery"
)

// DeliveryDetail is implemented by BranchPickup and HomeDelivery only.
type DeliveryDetail interface {
	DeliveryMethod() DeliveryMethod
	// Describe renders the destination for receipts and order listings.
	Describe() string
	sealedDelivery()
}

// BranchPickup collects the order at a store branch.
type BranchPickup struct {
	Branch string
}

func (BranchPickup) DeliveryMethod() DeliveryMethod { return DeliveryBranchPickup }
func (b BranchPickup) Describe() string              { return b.Branch }
func (BranchPickup) sealedDelivery()                 {}

// HomeDelivery ships the order to an address.
type HomeDelivery struct {
	Street string
	City   string
	Region string
}

func (HomeDelivery) DeliveryMethod() DeliveryMethod { return DeliveryHomeDelivery }
func (h HomeDelivery) Describe() string {
	return strings.Join([]string{h.Street, h.City, h.Region}, ", ")
}
func (HomeDelivery) sealedDelivery() {}

// Address converts the destination into a saveable address.
func (h HomeDelivery) Address() Address {
	return Address{Street: h.Street, City: h.City, Region: h.Region}
}

// Branches lists the pickup locations.
var Branches = []string{
	"Santiago Centro",
	"Santiago Oriente",
	"Santiago Poniente",
	"Concepción",
	"Viña del Mar",
	"Puerto Montt",
	"Villarrica",
	"Nacimiento",
	"Valparaíso",
}

// KnownBranch reports whether name matches a pickup location.
func KnownBranch(name string) bool {
	for _, branch := range Branches {
		if equalFold(branch, name) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
