package main

import (
	"errors"

	"github.com/spf13/cobra"

	jwtmanager "github.com/tokenkit/go-jwt-manager"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		audience string
		issuer   string
	)

	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a token and print its claims",
		Example: `  # Verify a token
  jwtverify verify eyJhbGciOi...

  # Verify an Authorization header value read from stdin
  echo "Bearer eyJhbGciOi..." | jwtverify verify -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd, args[0])
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New("token cannot be empty")
			}

			_, rt, err := a.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			var opts []jwtmanager.VerifyOption
			if audience != "" {
				opts = append(opts, jwtmanager.WithAudience(audience))
			}
			if issuer != "" {
				opts = append(opts, jwtmanager.WithIssuer(issuer))
			}

			res, err := rt.Manager.Verify(cmd.Context(), token, opts...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"issuer": res.Issuer,
				"kid":    res.KeyID,
				"claims": res.Body,
			})
		},
	}

	cmd.Flags().StringVar(&audience, "audience", "", "Require this audience (overrides the configuration)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Require this issuer")
	return cmd
}
