package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"songdrop/internal/ledger"
	"songdrop/internal/queue"
	"songdrop/internal/worker"
)

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and maintain the job queue",
	}
	cmd.AddCommand(jobsShowCmd(), jobsReclaimCmd())
	return cmd
}

func jobsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [job-id]",
		Short: "Print a job as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			job, err := queue.New(e.store.Jobs(), e.logger).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(job)
		},
	}
}

func jobsReclaimCmd() *cobra.Command {
	var maxAttempts int
	cmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Requeue or fail jobs whose lease has lapsed, refunding exhausted ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if maxAttempts <= 0 {
				maxAttempts = e.cfg.JobMaxAttempts
			}
			w := worker.New(worker.Deps{
				Store:  e.store,
				Queue:  queue.New(e.store.Jobs(), e.logger, queue.WithLease(e.cfg.JobLease)),
				Ledger: ledger.New(e.store.Credits(), e.logger),
				Logger: e.logger,
			}, worker.Options{MaxAttempts: maxAttempts})
			if err := w.ReclaimExpired(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "expired leases reclaimed")
			return nil
		},
	}
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "attempts before a job is failed (default JOB_MAX_ATTEMPTS)")
	return cmd
}
