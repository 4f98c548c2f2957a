package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huertohogar/storefront/internal/domain"
)

// DefaultPointsDivisor is the amount paid per loyalty point earned.
const DefaultPointsDivisor int64 = 1000

var (
	// ErrCheckoutMissingDeliveryMethod indicates no delivery method was chosen.
	ErrCheckoutMissingDeliveryMethod = errors.New("checkout: delivery method is required")
	// ErrCheckoutMissingBranch indicates a branch pickup without a known branch.
	ErrCheckoutMissingBranch = errors.New("checkout: branch is required for pickup")
	// ErrCheckoutIncompleteAddress indicates a new delivery address is missing fields.
	ErrCheckoutIncompleteAddress = errors.New("checkout: delivery address is incomplete")
	// ErrCheckoutUnknownSavedAddress indicates the saved address index does not exist.
	ErrCheckoutUnknownSavedAddress = errors.New("checkout: saved address not found")
)

// ComputeFinalTotal applies the whole points balance when usePoints is set. The result is never negative.
func ComputeFinalTotal(cartTotal, availablePoints int64, usePoints bool) int64 {
	if !usePoints {
		return cartTotal
	}
	if final := cartTotal - availablePoints; final > 0 {
		return final
	}
	return 0
}

// ComputePointsEarned awards one point per 1000 paid, rounding down.
func ComputePointsEarned(finalTotal int64) int64 {
	return pointsEarned(finalTotal, DefaultPointsDivisor)
}

func pointsEarned(finalTotal, divisor int64) int64 {
	if finalTotal <= 0 || divisor <= 0 {
		return 0
	}
	return finalTotal / divisor
}

// ApplyPointsBalance returns the balance after checkout. Redeeming resets the balance before adding earned points.
func ApplyPointsBalance(prior, pointsUsed, earned int64) int64 {
	if pointsUsed > 0 {
		return earned
	}
	return prior + earned
}

// ValidateDelivery turns a raw delivery request into a delivery detail, using the customer's saved addresses.
func ValidateDelivery(req DeliveryRequest, customer Customer) (DeliveryDetail, error) {
	switch domain.DeliveryMethod(strings.TrimSpace(req.Method)) {
	case "":
		return nil, ErrCheckoutMissingDeliveryMethod
	case domain.DeliveryBranchPickup:
		branch := strings.TrimSpace(req.Branch)
		if branch == "" {
			return nil, ErrCheckoutMissingBranch
		}
		if !domain.KnownBranch(branch) {
			return nil, fmt.Errorf("%w: unknown branch %q", ErrCheckoutMissingBranch, branch)
		}
		return domain.BranchPickup{Branch: branch}, nil
	case domain.DeliveryHomeDelivery:
		if req.SavedAddressIndex != nil {
			idx := *req.SavedAddressIndex
			if idx < 0 || idx >= len(customer.Addresses) {
				return nil, fmt.Errorf("%w: index %d", ErrCheckoutUnknownSavedAddress, idx)
			}
			saved := customer.Addresses[idx]
			return domain.HomeDelivery{Street: saved.Street, City: saved.City, Region: saved.Region}, nil
		}
		street, city, region := strings.TrimSpace(req.Street), strings.TrimSpace(req.City), strings.TrimSpace(req.Region)
		if street == "" || city == "" || region == "" {
			return nil, ErrCheckoutIncompleteAddress
		}
		return domain.HomeDelivery{Street: street, City: city, Region: region}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported method %q", ErrCheckoutMissingDeliveryMethod, req.Method)
	}
}

func deliveryErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrCheckoutMissingDeliveryMethod):
		return "Por favor, selecciona un método de entrega."
	case errors.Is(err, ErrCheckoutMissingBranch):
		return "Por favor, selecciona una sucursal para el retiro."
	case errors.Is(err, ErrCheckoutIncompleteAddress):
		return "Por favor, completa todos los campos de la nueva dirección."
	case errors.Is(err, ErrCheckoutUnknownSavedAddress):
		return "Por favor, selecciona una dirección guardada válida."
	default:
		return "Error en los detalles de entrega."
	}
}
