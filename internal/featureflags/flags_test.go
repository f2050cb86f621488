package featureflags

import (
	"testing"

	"github.com/aryan0dhankhar/storefront/internal/domain"
)

func testTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:       "diamond",
		Features: domain.Features{Wishlist: true, Reviews: true},
	}
}

func TestEnabledFromCatalog(t *testing.T) {
	tn := testTenant()
	if !Enabled(tn, Wishlist) || !Enabled(tn, Reviews) {
		t.Fatalf("expected catalog features to be enabled")
	}
	if Enabled(tn, Loyalty) || Enabled(tn, LiveChat) {
		t.Fatalf("expected disabled features to stay off")
	}
	if Enabled(tn, "checkout") {
		t.Fatalf("unknown features must be off")
	}
	if Enabled(nil, Wishlist) {
		t.Fatalf("nil tenant must have no features")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FLAG_DIAMOND_LIVE_CHAT", "true")
	t.Setenv("FLAG_DIAMOND_REVIEWS", "off")
	t.Setenv("FLAG_DIAMOND_WISHLIST", "maybe")

	tn := testTenant()
	if !Enabled(tn, LiveChat) {
		t.Fatalf("expected live_chat override to enable the feature")
	}
	if Enabled(tn, Reviews) {
		t.Fatalf("expected reviews override to disable the feature")
	}
	if !Enabled(tn, Wishlist) {
		t.Fatalf("unparseable override should fall back to the catalog value")
	}

	flags := Resolve(tn)
	if len(flags) != 4 || !flags[LiveChat] || flags[Reviews] {
		t.Fatalf("unexpected resolved flags %v", flags)
	}
}
