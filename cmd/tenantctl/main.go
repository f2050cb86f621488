package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// errDenied makes `tenantctl access` exit non-zero without an error message
var errDenied = errors.New("access denied")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errDenied) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return errors.New("missing command")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "list":
		return listTenants(rest, stdout)
	case "validate":
		return validateCatalog(rest, stdout)
	case "resolve":
		return resolveTenant(rest, stdout)
	case "access":
		return checkAccess(rest, stdout)
	case "rewrite":
		return rewriteHTML(rest, stdin, stdout)
	case "inspect":
		return inspectHTML(rest, stdin, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `tenantctl - inspect the storefront tenant catalog

Usage:
  tenantctl list     [--catalog FILE]
  tenantctl validate [--catalog FILE]
  tenantctl resolve  --host HOST [--tenant ID] [--edge] [--catalog FILE]
  tenantctl access   --role ROLE --require ROLE[,ROLE...] [--anonymous]
  tenantctl rewrite  --host HOST [--tenant ID] [--file FILE] [--catalog FILE]
  tenantctl inspect  [--file FILE | --url URL]

The catalog defaults to the compiled-in tenants; TENANT_CATALOG overrides it.
`)
}
