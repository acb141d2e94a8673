package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"printbot/internal/config"
	"printbot/internal/queue"
)

func newQueueCommand(configFlag *string) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the print queue",
	}

	queueCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending and failed requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openQueueStore(*configFlag)
			if err != nil {
				return err
			}
			defer store.Close()
			ctx := cmd.Context()

			pending, err := store.ListPending(ctx)
			if err != nil {
				return err
			}
			failed, err := store.ListFailed(ctx)
			if err != nil {
				return err
			}
			if len(pending) == 0 && len(failed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tFILE\tSUBMITTED\tERROR")
			for _, r := range append(pending, failed...) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					r.ID, r.Status, r.FileName,
					r.SubmittedAt.Format("2006-01-02 15:04"), r.ErrorMessage)
			}
			return w.Flush()
		},
	})

	queueCmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one request from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			store, err := openQueueStore(*configFlag)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed request %d\n", id)
			return nil
		},
	})

	queueCmd.AddCommand(&cobra.Command{
		Use:   "clear-failed",
		Short: "Delete all failed requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openQueueStore(*configFlag)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.ClearFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d failed requests\n", n)
			return nil
		},
	})

	return queueCmd
}

func openQueueStore(cfgPath string) (*queue.Store, error) {
	cfg, err := config.NewManager(cfgPath).Load()
	if err != nil {
		return nil, err
	}
	return queue.Open(cfg.QueuePathOrDefault())
}
