package host

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// Command groups hostname helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Hostname routing utilities",
	}

	cmd.AddCommand(inspectCommand())
	return cmd
}

// Inspection is the offline routing outcome for one host and path.
type Inspection struct {
	Host      string `json:"host"`
	Kind      string `json:"kind"`
	Tenant    string `json:"tenant,omitempty"`
	Action    string `json:"action"`
	Path      string `json:"path"`
	Rewritten string `json:"rewrittenPath,omitempty"`
}

// Inspect classifies rawHost and routes path exactly as the API server does, without any store lookups.
func Inspect(parser *tenant.HostParser, rawHost, path string) Inspection {
	classification := parser.Classify(rawHost)
	decision := tenant.Route(classification, path)

	out := Inspection{
		Host:   classification.Host,
		Kind:   classification.Kind.String(),
		Tenant: classification.Token,
		Action: actionName(decision.Action),
		Path:   path,
	}
	if decision.Action == tenant.ActionRewrite {
		out.Rewritten = decision.Path
	}
	return out
}

func actionName(a tenant.Action) string {
	switch a {
	case tenant.ActionRewrite:
		return "rewrite"
	case tenant.ActionBlock:
		return "block"
	default:
		return "pass"
	}
}

func inspectCommand() *cobra.Command {
	var (
		rawHost    string
		path       string
		rootDomain string
		devMarkers []string
	)

	c := &cobra.Command{
		Use:   "inspect",
		Short: "Show how a host and path are classified and routed",
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := tenant.NewHostParser(rootDomain, devMarkers)
			if err != nil {
				return err
			}
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			return writeJSON(cmd.OutOrStdout(), Inspect(parser, rawHost, path))
		},
	}

	c.Flags().StringVar(&rawHost, "host", "", "Host header value, e.g. acme.rname.ink or localhost:3000")
	c.Flags().StringVar(&path, "path", "/", "request path")
	c.Flags().StringVar(&rootDomain, "root-domain", "rname.ink", "production root domain")
	c.Flags().StringSliceVar(&devMarkers, "dev-markers", []string{"localhost"}, "local development host markers")

	_ = c.MarkFlagRequired("host")
	return c
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
