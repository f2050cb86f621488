package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/pflag"

	"github.com/aryan0dhankhar/storefront/internal/catalog"
	"github.com/aryan0dhankhar/storefront/internal/edge"
	"github.com/aryan0dhankhar/storefront/internal/featureflags"
	"github.com/aryan0dhankhar/storefront/internal/security"
	"github.com/aryan0dhankhar/storefront/internal/tenant"
)

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func addCatalogFlag(fs *pflag.FlagSet) *string {
	return fs.String("catalog", os.Getenv("TENANT_CATALOG"), "tenant catalog YAML file (default: compiled-in)")
}

func listTenants(args []string, out io.Writer) error {
	fs := newFlagSet("list")
	path := addCatalogFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := catalog.Load(*path)
	if err != nil {
		return err
	}
	reg, err := tenant.RegistryFromCatalog(cat)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tCURRENCY\tFEATURES\tPAYMENTS")
	for _, t := range reg.List() {
		var enabled []string
		for _, name := range featureflags.Names() {
			if featureflags.Enabled(&t, name) {
				enabled = append(enabled, name)
			}
		}
		id := t.ID
		if id == reg.Default().ID {
			id += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			id, t.Name, t.Domain, t.Currency.Code,
			orDash(strings.Join(enabled, ",")), orDash(strings.Join(t.PaymentMethods(), ",")))
	}
	return w.Flush()
}

func validateCatalog(args []string, out io.Writer) error {
	fs := newFlagSet("validate")
	path := addCatalogFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := catalog.Load(*path)
	if err != nil {
		return err
	}
	if _, err := tenant.RegistryFromCatalog(cat); err != nil {
		return err
	}
	fmt.Fprintf(out, "catalog ok: %d tenants, %d edge aliases, default %s\n",
		len(cat.Tenants), len(cat.EdgeAliases), cat.DefaultID)
	return nil
}

func resolveTenant(args []string, out io.Writer) error {
	fs := newFlagSet("resolve")
	path := addCatalogFlag(fs)
	host := fs.String("host", "", "request hostname, port allowed")
	override := fs.String("tenant", "", "explicit tenant override")
	useEdge := fs.Bool("edge", false, "resolve with the edge host table instead of the API resolver")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := catalog.Load(*path)
	if err != nil {
		return err
	}

	if *useEdge {
		m := edge.NewTable(cat).Resolve(*host, *override)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "tenant\t%s\n", m.TenantID)
		fmt.Fprintf(w, "title\t%s\n", m.Title)
		fmt.Fprintf(w, "url\t%s\n", m.SiteURL())
		fmt.Fprintf(w, "image\t%s\n", orDash(m.ImageURL()))
		fmt.Fprintf(w, "twitter\t%s\n", orDash(m.TwitterHandle()))
		return w.Flush()
	}

	reg, err := tenant.RegistryFromCatalog(cat)
	if err != nil {
		return err
	}
	t, source := tenant.NewResolver(reg, nil).Resolve(tenant.ResolutionContext{Hostname: *host, Override: *override})
	fmt.Fprintf(out, "%s\t(%s)\n", t.ID, source)
	return nil
}

func checkAccess(args []string, out io.Writer) error {
	fs := newFlagSet("access")
	role := fs.String("role", "", "role held by the caller")
	required := fs.StringSlice("require", nil, "roles that grant access (any of)")
	anonymous := fs.Bool("anonymous", false, "treat the caller as signed out")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := security.Principal{Authenticated: !*anonymous}
	if r, ok := security.ParseRole(*role); ok {
		p.Role, p.RoleLoaded = r, true
	}
	roles := make([]security.Role, 0, len(*required))
	for _, r := range *required {
		roles = append(roles, security.Role(r))
	}

	if security.HasAccess(p, roles...) {
		fmt.Fprintln(out, "allowed")
		return nil
	}
	fmt.Fprintln(out, "denied")
	return errDenied
}

func rewriteHTML(args []string, stdin io.Reader, out io.Writer) error {
	fs := newFlagSet("rewrite")
	path := addCatalogFlag(fs)
	host := fs.String("host", "", "request hostname")
	override := fs.String("tenant", "", "explicit tenant override")
	file := fs.String("file", "", "HTML file to rewrite (default: stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := catalog.Load(*path)
	if err != nil {
		return err
	}
	html, err := readInput(*file, stdin)
	if err != nil {
		return err
	}

	m := edge.NewTable(cat).Resolve(*host, *override)
	_, err = io.WriteString(out, edge.Rewrite(string(html), m))
	return err
}

func inspectHTML(args []string, stdin io.Reader, out io.Writer) error {
	fs := newFlagSet("inspect")
	file := fs.String("file", "", "HTML file to inspect (default: stdin)")
	target := fs.String("url", "", "fetch and inspect a live page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var body io.Reader
	if *target != "" {
		client := &http.Client{Timeout: 15 * time.Second}
		resp, err := client.Get(*target)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", *target, err)
		}
		defer resp.Body.Close()
		body = resp.Body
	} else {
		html, err := readInput(*file, stdin)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(html))
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tKEY\tCONTENT")
	fmt.Fprintf(w, "title\t-\t%s\n", strings.TrimSpace(doc.Find("head title").First().Text()))
	doc.Find("head meta").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok {
			key, ok = s.Attr("name")
		}
		if !ok {
			return
		}
		content, _ := s.Attr("content")
		fmt.Fprintf(w, "meta\t%s\t%s\n", key, content)
	})
	return w.Flush()
}

func readInput(file string, stdin io.Reader) ([]byte, error) {
	if file == "" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return data, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
