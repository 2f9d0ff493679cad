package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zenGate-Global/palmyra-storefront/platform/go/auth/devtoken"
)

func devTokenCommand() *cobra.Command {
	var (
		params   devtoken.Params
		userID   string
		tenantID string
	)

	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Generate an unsigned session token accepted when AUTH_PROVIDER=dev",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user-id: %w", err)
			}
			params.UserID = id

			if tenantID != "" {
				tid, err := uuid.Parse(tenantID)
				if err != nil {
					return fmt.Errorf("invalid --tenant-id: %w", err)
				}
				params.TenantID = &tid
			}

			token, err := devtoken.BuildUnsignedToken(params, time.Now().UTC())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	// Required claims
	cmd.Flags().StringVar(&userID, "user-id", "", "sub claim (user uuid)")
	cmd.Flags().StringVar(&params.Email, "email", "", "email claim")

	// Optional claims
	cmd.Flags().StringVar(&params.Name, "name", "", "display name")
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "tenant_id claim (uuid of the shop the user owns)")
	cmd.Flags().DurationVar(&params.ExpiresIn, "expires-in", time.Hour, "token lifetime (e.g. 30m, 2h)")
	cmd.Flags().StringVar(&params.Issuer, "issuer", "", "override iss; defaults to storefront-dev")

	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
