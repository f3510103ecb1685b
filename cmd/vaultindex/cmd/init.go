package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vaultindex/vaultindex/configs"
	"github.com/vaultindex/vaultindex/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [vault]",
		Short: "Write a starter config file into the vault",
		Long: `Create a .vaultindex.yaml at the vault root with every setting listed
and documented. Imports work without one; the file is only for
overriding defaults.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, vaultArg(args), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, path string, force bool) error {
	abs, err := resolveVault(path)
	if err != nil {
		return err
	}

	target := filepath.Join(abs, config.FileName)
	if !force {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		}
	}

	if err := os.WriteFile(target, []byte(configs.VaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	newConsole(cmd).Successf("Created %s", target)
	return nil
}
