package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yashubustudio/healthguard/healthguard"
)

func newConfigCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect config.json",
		// config commands must work before a valid store or knowledge base exists
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	cmd.AddCommand(newConfigInitCmd(state), newConfigShowCmd(state))
	return cmd
}

func newConfigInitCmd(state *cliState) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.json holding the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPathOrDefault(state.configPath)
			err := healthguard.WriteConfig(path, healthguard.Config{}, force)
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%s already exists; pass --force to replace it", path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing config file")
	return cmd
}

func newConfigShowCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after .env and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := healthguard.LoadConfig(state.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Store.S3.SecretKey != "" {
				cfg.Store.S3.SecretKey = "********"
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func configPathOrDefault(path string) string {
	if path == "" {
		return "config.json"
	}
	return path
}
