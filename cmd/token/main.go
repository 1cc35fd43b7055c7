// Command token mints an operator JWT for the taskbot HTTP endpoints.
package main

import (
	"fmt"
	"os"
	"time"

	"taskbot/pkg/config"
	"taskbot/pkg/util"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		subject string
		secret  string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator JWT for /simulate/message and /jobs/daily-digest",
		Example: "  JWT_SECRET=... token --sub alice --ttl 12h\n" +
			"  curl -H \"Authorization: Bearer $(token)\" -X POST localhost:8080/jobs/daily-digest",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				var cfg config.JWTConfig
				config.OverrideJWTFromEnv(&cfg)
				secret = cfg.Secret
			}
			token, err := util.GenerateJWT(subject, secret, ttl)
			if err != nil {
				return fmt.Errorf("%w (set JWT_SECRET or --secret)", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "operator", "token subject")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to $JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
