// Package edge rewrites per-tenant link-preview metadata into HTML served by
// the storefront origin, for crawlers that never run the client application.
package edge

import (
	"net"
	"net/url"
	"strings"

	"github.com/aryan0dhankhar/storefront/internal/catalog"
)

// Metadata is the tenant branding written into the document head
type Metadata struct {
	TenantID    string
	Name        string
	Domain      string
	Title       string
	Description string
	Image       string
	TwitterURL  string
}

// SiteURL is the canonical storefront URL
func (m Metadata) SiteURL() string {
	return "https://" + m.Domain
}

// ImageURL returns the preview image as an absolute URL
func (m Metadata) ImageURL() string {
	if m.Image == "" || strings.HasPrefix(m.Image, "http://") || strings.HasPrefix(m.Image, "https://") {
		return m.Image
	}
	return m.SiteURL() + "/" + strings.TrimPrefix(m.Image, "/")
}

// TwitterHandle returns the @handle of the tenant's Twitter profile
func (m Metadata) TwitterHandle() string {
	return TwitterHandle(m.TwitterURL)
}

// TwitterHandle extracts "@name" from a profile URL such as
// https://twitter.com/name. Malformed or empty URLs yield "".
func TwitterHandle(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		seg = strings.TrimPrefix(seg, "@")
		if seg != "" {
			return "@" + seg
		}
	}
	return ""
}

// Table maps request hosts to tenant metadata. It is built from the same
// catalog as the API server registry but holds only what the edge needs.
type Table struct {
	hosts     map[string]string
	meta      map[string]Metadata
	defaultID string
}

// NewTable derives the edge lookup table from the tenant catalog
func NewTable(c *catalog.Catalog) *Table {
	t := &Table{
		hosts:     make(map[string]string, len(c.Tenants)+len(c.EdgeAliases)),
		meta:      make(map[string]Metadata, len(c.Tenants)),
		defaultID: c.DefaultID,
	}
	for _, tn := range c.Tenants {
		title := tn.Name
		if tn.Tagline != "" {
			title = tn.Name + " | " + tn.Tagline
		}
		t.meta[tn.ID] = Metadata{
			TenantID:    tn.ID,
			Name:        tn.Name,
			Domain:      tn.Domain,
			Title:       title,
			Description: tn.Description,
			Image:       tn.LogoPath,
			TwitterURL:  tn.Social["twitter"],
		}
		t.hosts[tn.Domain] = tn.ID
	}
	for host, id := range c.EdgeAliases {
		t.hosts[host] = id
	}
	return t
}

// Resolve picks metadata by host, then by the explicit override, then the default
func (t *Table) Resolve(host, override string) Metadata {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if id, ok := t.hosts[host]; ok {
		return t.meta[id]
	}
	if m, ok := t.meta[override]; ok && override != "" {
		return m
	}
	return t.meta[t.defaultID]
}
