package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenkit/go-jwt-manager/issuer"
)

// loader is implemented by sources that fetch keys from the issuer.
type loader interface {
	Load(ctx context.Context, issuerURL string) error
}

func newKeysCmd(a *app) *cobra.Command {
	var fetch bool

	cmd := &cobra.Command{
		Use:   "keys [issuer-url]",
		Short: "List the key ids known for an issuer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuerURL := args[0]

			_, rt, err := a.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if fetch {
				if err := load(cmd.Context(), rt.Registry, issuerURL); err != nil {
					return err
				}
			}

			ids, err := rt.Registry.ListKeyIDs(cmd.Context(), issuerURL)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fetch, "fetch", false, "Fetch the issuer's published keys first")
	return cmd
}

// load asks the first source matching issuerURL to fetch its keys.
func load(ctx context.Context, reg *issuer.Registry, issuerURL string) error {
	for _, s := range reg.Sources() {
		if !s.Match(issuerURL) {
			continue
		}
		l, ok := s.(loader)
		if !ok {
			return fmt.Errorf("source %s does not fetch keys", s)
		}
		return l.Load(ctx, issuerURL)
	}
	return fmt.Errorf("%w: %s", issuer.ErrIssuerMismatch, issuerURL)
}
