package edge

import (
	"testing"

	"github.com/aryan0dhankhar/storefront/internal/catalog"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	c, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewTable(c)
}

func TestTwitterHandle(t *testing.T) {
	tests := map[string]string{
		"https://twitter.com/diamond":  "@diamond",
		"https://x.com/collab":         "@collab",
		"https://twitter.com/@hoodti/": "@hoodti",
		"":                             "",
		"twitter.com/nohost":           "",
		"https://twitter.com":          "",
		"://broken":                    "",
	}
	for raw, want := range tests {
		if got := TwitterHandle(raw); got != want {
			t.Errorf("TwitterHandle(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestTableResolve(t *testing.T) {
	table := newTestTable(t)

	tests := []struct {
		name     string
		host     string
		override string
		want     string
	}{
		{"known domain", "diamond-covers.netlify.app", "", "diamond"},
		{"domain with port", "collab.com:443", "", "collab"},
		{"host wins over override", "collab.com", "diamond", "collab"},
		{"alias", "localhost:5173", "", "hoodti"},
		{"loopback alias", "127.0.0.1", "", "hoodti"},
		{"loopback alias with port", "127.0.0.1:8888", "", "hoodti"},
		{"loopback alias beats override", "127.0.0.1", "diamond", "hoodti"},
		{"override on unknown host", "preview.example.net", "streetwear", "streetwear"},
		{"unknown override", "preview.example.net", "nope", "hoodti"},
		{"fallback", "preview.example.net", "", "hoodti"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Resolve(tt.host, tt.override).TenantID; got != tt.want {
				t.Fatalf("Resolve(%q, %q) = %s, want %s", tt.host, tt.override, got, tt.want)
			}
		})
	}
}

func TestTableDiamondMetadata(t *testing.T) {
	m := newTestTable(t).Resolve("diamond-covers.netlify.app", "")
	if m.Title != "Diamond | Streetwear for Urban Culture" {
		t.Fatalf("unexpected title %q", m.Title)
	}
	if m.TwitterHandle() != "@diamond" {
		t.Fatalf("unexpected handle %q", m.TwitterHandle())
	}
	if m.ImageURL() != "https://diamond-covers.netlify.app/logos/diamond.png" {
		t.Fatalf("unexpected image %q", m.ImageURL())
	}

	if h := newTestTable(t).Resolve("ecommerce-v15.netlify.app", "").TwitterHandle(); h != "" {
		t.Fatalf("streetwear has no twitter profile, got %q", h)
	}
}
