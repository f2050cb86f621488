package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTenant is returned when a tenant record breaks a registry invariant
var ErrInvalidTenant = errors.New("invalid tenant")

// Currency describes how prices are displayed for a storefront
type Currency struct {
	Code   string `yaml:"code" json:"code"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// Contact holds the public contact details of a storefront
type Contact struct {
	Email   string `yaml:"email" json:"email"`
	Phone   string `yaml:"phone" json:"phone"`
	Address string `yaml:"address" json:"address"`
}

// Features toggles optional storefront functionality
type Features struct {
	Wishlist bool `yaml:"wishlist" json:"wishlist"`
	Reviews  bool `yaml:"reviews" json:"reviews"`
	Loyalty  bool `yaml:"loyalty" json:"loyalty"`
	LiveChat bool `yaml:"live_chat" json:"liveChat"`
}

// Shipping is the default shipping policy of a storefront
type Shipping struct {
	FreeThreshold float64 `yaml:"free_threshold" json:"freeThreshold"`
	DefaultFee    float64 `yaml:"default_fee" json:"defaultFee"`
	ExpressFee    float64 `yaml:"express_fee" json:"expressFee"`
}

// Payments lists the payment methods a storefront accepts
type Payments struct {
	CashOnDelivery bool `yaml:"cash_on_delivery" json:"cashOnDelivery"`
	Online         bool `yaml:"online" json:"online"`
	BankTransfer   bool `yaml:"bank_transfer" json:"bankTransfer"`
}

// Tenant is one storefront brand served by the shared application and backend
type Tenant struct {
	ID             string            `yaml:"id" json:"id"`
	Name           string            `yaml:"name" json:"name"`
	Domain         string            `yaml:"domain" json:"domain"`
	Tagline        string            `yaml:"tagline" json:"tagline,omitempty"`
	LogoPath       string            `yaml:"logo" json:"logo"`
	PrimaryColor   string            `yaml:"primary_color" json:"primaryColor"`
	SecondaryColor string            `yaml:"secondary_color" json:"secondaryColor"`
	Description    string            `yaml:"description" json:"description"`
	Currency       Currency          `yaml:"currency" json:"currency"`
	Contact        Contact           `yaml:"contact" json:"contact"`
	Social         map[string]string `yaml:"social" json:"social,omitempty"`
	Features       Features          `yaml:"features" json:"features"`
	Shipping       Shipping          `yaml:"shipping" json:"shipping"`
	Payments       Payments          `yaml:"payments" json:"payments"`
}

// Validate checks the invariants a single tenant record must hold
func (t *Tenant) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTenant)
	}
	if t.Domain == "" {
		return fmt.Errorf("%w: tenant %q has empty domain", ErrInvalidTenant, t.ID)
	}
	if t.Shipping.FreeThreshold < 0 || t.Shipping.DefaultFee < 0 || t.Shipping.ExpressFee < 0 {
		return fmt.Errorf("%w: tenant %q has negative shipping values", ErrInvalidTenant, t.ID)
	}
	return nil
}

// ShippingFee returns the fee charged for an order subtotal.
// Express delivery always costs the express fee; standard delivery is free
// once the subtotal reaches a positive free-shipping threshold.
func (t *Tenant) ShippingFee(subtotal float64, express bool) float64 {
	if express {
		return t.Shipping.ExpressFee
	}
	if t.Shipping.FreeThreshold > 0 && subtotal >= t.Shipping.FreeThreshold {
		return 0
	}
	return t.Shipping.DefaultFee
}

// PaymentMethods returns the identifiers of the enabled payment methods
func (t *Tenant) PaymentMethods() []string {
	methods := make([]string, 0, 3)
	if t.Payments.CashOnDelivery {
		methods = append(methods, "cash_on_delivery")
	}
	if t.Payments.Online {
		methods = append(methods, "online")
	}
	if t.Payments.BankTransfer {
		methods = append(methods, "bank_transfer")
	}
	return methods
}

// Clone returns a deep copy so callers cannot mutate registry state
func (t Tenant) Clone() Tenant {
	if t.Social != nil {
		social := make(map[string]string, len(t.Social))
		for k, v := range t.Social {
			social[k] = v
		}
		t.Social = social
	}
	return t
}
