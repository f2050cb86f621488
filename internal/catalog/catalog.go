// Package catalog loads the tenant catalog shared by the API server and the
// edge meta rewriter.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aryan0dhankhar/storefront/internal/domain"
)

// ErrInvalidCatalog wraps every validation failure of a catalog document
var ErrInvalidCatalog = errors.New("invalid tenant catalog")

//go:embed tenants.yaml
var embedded []byte

// Catalog is the decoded tenant catalog
type Catalog struct {
	DefaultID   string            `yaml:"default"`
	EdgeAliases map[string]string `yaml:"edge_aliases"`
	Tenants     []domain.Tenant   `yaml:"tenants"`
}

// Embedded returns the catalog compiled into the binary
func Embedded() (*Catalog, error) {
	return Parse(embedded)
}

// LoadFile reads and validates a catalog from disk
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Load returns the catalog at path, or the embedded one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Embedded()
	}
	return LoadFile(path)
}

// Parse decodes a YAML catalog and validates it
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate enforces uniqueness of ids and domains and that aliases and the
// default point at known tenants
func (c *Catalog) Validate() error {
	if len(c.Tenants) == 0 {
		return fmt.Errorf("%w: no tenants", ErrInvalidCatalog)
	}
	ids := make(map[string]struct{}, len(c.Tenants))
	domains := make(map[string]struct{}, len(c.Tenants))
	for i := range c.Tenants {
		t := &c.Tenants[i]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
		if _, dup := ids[t.ID]; dup {
			return fmt.Errorf("%w: duplicate tenant id %q", ErrInvalidCatalog, t.ID)
		}
		if _, dup := domains[t.Domain]; dup {
			return fmt.Errorf("%w: duplicate domain %q", ErrInvalidCatalog, t.Domain)
		}
		ids[t.ID] = struct{}{}
		domains[t.Domain] = struct{}{}
	}
	if c.DefaultID == "" {
		c.DefaultID = c.Tenants[0].ID
	}
	if _, ok := ids[c.DefaultID]; !ok {
		return fmt.Errorf("%w: default tenant %q is not defined", ErrInvalidCatalog, c.DefaultID)
	}
	for host, id := range c.EdgeAliases {
		if _, ok := ids[id]; !ok {
			return fmt.Errorf("%w: alias %q points at unknown tenant %q", ErrInvalidCatalog, host, id)
		}
	}
	return nil
}
