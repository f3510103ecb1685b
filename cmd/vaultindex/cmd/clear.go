package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete a collection and all its points",
		Long: `Delete the collection from the vector store. The vault itself and the
incremental state file are left untouched; the next import rebuilds
the collection from scratch.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runClear(ctx, cmd, yes)
		},
	}

	cmd.Flags().String("collection", "vault", "Collection to delete")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func runClear(ctx context.Context, cmd *cobra.Command, yes bool) error {
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return err
	}
	name := cfg.Qdrant.Collection
	console := newConsole(cmd)

	if !yes {
		fmt.Fprintf(cmd.OutOrStdout(), "Delete collection %q and all its points? [y/N]: ", name)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			console.Plainf("Aborted.")
			return nil
		}
	}

	st, err := openQueryStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.DeleteCollection(ctx, name); err != nil {
		return err
	}

	console.Successf("Deleted collection: %s", name)
	return nil
}
