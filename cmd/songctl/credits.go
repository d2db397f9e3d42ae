package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"songdrop/internal/domain"
	"songdrop/internal/ledger"
)

func creditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect and adjust credit accounts",
	}
	cmd.AddCommand(creditsShowCmd(), creditsRefillCmd(), creditsTierCmd())
	return cmd
}

func creditsShowCmd() *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [user-id]",
		Short: "Print balance and recent ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			l := ledger.New(e.store.Credits(), e.logger)
			account, err := l.Balance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entries, err := l.Entries(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"account": account, "entries": entries})
			}
			fmt.Fprintf(out, "user=%s tier=%s status=%s credits=%d\n", account.UserID, account.Tier, account.Status, account.CreditsRemaining)
			for _, entry := range entries {
				fmt.Fprintf(out, "%s  %-7s %+d  balance=%d  ref=%s\n",
					entry.CreatedAt.Format(time.RFC3339), entry.Reason, entry.Delta, entry.BalanceAfter, entry.Reference)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of ledger entries")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func creditsRefillCmd() *cobra.Command {
	var amount int
	var reference string
	cmd := &cobra.Command{
		Use:   "refill [user-id]",
		Short: "Add credits to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount <= 0 {
				return fmt.Errorf("--amount must be positive")
			}
			if reference == "" {
				reference = "manual:" + time.Now().UTC().Format(time.RFC3339)
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			balance, err := ledger.New(e.store.Credits(), e.logger).Refill(cmd.Context(), args[0], amount, reference)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s now has %d credits\n", args[0], balance)
			return nil
		},
	}
	cmd.Flags().IntVarP(&amount, "amount", "a", 0, "credits to add")
	cmd.Flags().StringVar(&reference, "reference", "", "audit reference (default manual:<timestamp>)")
	return cmd
}

func creditsTierCmd() *cobra.Command {
	var tier, status string
	var grant bool
	cmd := &cobra.Command{
		Use:   "set-tier [user-id]",
		Short: "Set an account's subscription tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTier(tier)
			if err != nil {
				return err
			}
			s := domain.AccountStatus(strings.ToLower(strings.TrimSpace(status)))
			switch s {
			case domain.AccountStatusActive, domain.AccountStatusCanceled, domain.AccountStatusPaused, domain.AccountStatusExpired:
			default:
				return fmt.Errorf("unsupported status %q", status)
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			var account *domain.CreditAccount
			err = e.store.WithinTx(ctx, func(tx domain.Store) error {
				var err error
				account, err = tx.Credits().UpsertSubscription(ctx, domain.SubscriptionUpdate{UserID: args[0], Tier: t, Status: s})
				if err != nil {
					return err
				}
				if grant && s == domain.AccountStatusActive && ledger.Allowance(t) > 0 {
					balance, err := ledger.New(tx.Credits(), e.logger).Refill(ctx, args[0], ledger.Allowance(t), "manual-tier:"+string(t))
					if err != nil {
						return err
					}
					account.CreditsRemaining = balance
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s tier=%s status=%s credits=%d\n", account.UserID, account.Tier, account.Status, account.CreditsRemaining)
			return nil
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "free, starter, creator or pro")
	cmd.Flags().StringVar(&status, "status", string(domain.AccountStatusActive), "account status")
	cmd.Flags().BoolVar(&grant, "grant", false, "also grant the tier's monthly allowance")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func parseTier(raw string) (domain.Tier, error) {
	t := domain.Tier(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case domain.TierFree, domain.TierStarter, domain.TierCreator, domain.TierPro:
		return t, nil
	}
	return "", fmt.Errorf("unsupported tier %q", raw)
}
