// internal/cli/commands.go
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}

func createAdminCmd(rt *runtime) *cobra.Command {
	var email, name, role, password string
	var google bool

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff account for the admin console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			u := models.User{FullName: name, Email: email, Role: role}
			if google {
				u.AuthMethod = models.AuthGoogle
			} else if password == "" {
				return errors.New("--password is required unless --google is set")
			}

			created, err := rt.app.Users.Create(ctx, u, password)
			if errors.Is(err, userstore.ErrDuplicateEmail) {
				return fmt.Errorf("a user with email %s already exists", strings.ToLower(email))
			}
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			logger(rt).Info("staff user created",
				zap.String("user_id", created.ID), zap.String("role", created.Role))
			fmt.Fprintf(out(cmd), "Created %s %s (%s) id=%s\n", created.Role, created.FullName, created.Email, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&role, "role", models.RoleAdmin, "Role: admin, editor or viewer")
	cmd.Flags().StringVar(&password, "password", "", "Password for password sign-in")
	cmd.Flags().BoolVar(&google, "google", false, "Sign in with Google instead of a password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func expireCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Mark active members whose end date has passed as expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			n, err := rt.app.Members.ExpireLapsed(ctx, authz.System)
			if err != nil {
				return fmt.Errorf("expiry sweep failed: %w", err)
			}
			fmt.Fprintf(out(cmd), "Expired %d members\n", n)
			return nil
		},
	}
}

func outboxCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect or drain the email outbox",
	}
	cmd.AddCommand(outboxListCmd(rt), outboxDeliverCmd(rt))
	return cmd
}

func outboxListCmd(rt *runtime) *cobra.Command {
	var status string
	var limit int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued, sent or failed email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := models.DeliveryStatus(strings.ToLower(strings.TrimSpace(status)))
			switch st {
			case "", models.DeliveryPending, models.DeliverySending, models.DeliverySent, models.DeliveryFailed:
			default:
				return fmt.Errorf("unknown status %q (want pending, sending, sent or failed)", status)
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			msgs, err := rt.app.Outbox.List(ctx, st, limit)
			if err != nil {
				return fmt.Errorf("failed to list outbox: %w", err)
			}

			w := out(cmd)
			fmt.Fprintf(w, "Found %d messages\n", len(msgs))
			for _, m := range msgs {
				line := fmt.Sprintf("- %s [%s] %s -> %s %q attempts=%d", m.ID, m.Status, m.Kind, m.To, m.Subject, m.Attempts)
				if m.LastError != "" {
					line += " error=" + m.LastError
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only messages with this status")
	cmd.Flags().Int64Var(&limit, "limit", 50, "Maximum messages to show")
	return cmd
}

func outboxDeliverCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "deliver",
		Short: "Run one delivery pass over due messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			res, err := rt.app.Delivery.DeliverPass(ctx)
			if err != nil {
				return fmt.Errorf("delivery pass failed: %w", err)
			}
			fmt.Fprintf(out(cmd), "Sent %d, retrying %d, failed %d\n", res.Sent, res.Retried, res.Failed)
			return nil
		},
	}
}

func statsCmd(rt *runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show membership totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, err := rt.app.Members.Stats(ctx, authz.System)
			if err != nil {
				return fmt.Errorf("failed to compute stats: %w", err)
			}

			w := out(cmd)
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			fmt.Fprintf(w, "Members:           %d\n", s.Total)
			fmt.Fprintf(w, "Active:            %d\n", s.Active)
			fmt.Fprintf(w, "Pending:           %d\n", s.Pending)
			fmt.Fprintf(w, "Pending payments:  %d\n", s.PendingPayments)
			fmt.Fprintf(w, "Expiring soon:     %d\n", s.ExpiringSoon)
			fmt.Fprintf(w, "New this month:    %d\n", s.NewThisMonth)
			fmt.Fprintf(w, "Revenue this year: %s\n", s.RevenueThisYear)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
