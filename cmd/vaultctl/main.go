package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "vaultctl",
		Short: "CLI client for the vault service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Vault service base URL")

	uploadCmd := &cobra.Command{
		Use:   "upload <archive.zip>",
		Short: "Upload a knowledge-base archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			async, _ := cmd.Flags().GetBool("async")
			return runUpload(apiFlag, args[0], name, async, os.Stdout)
		},
	}
	uploadCmd.Flags().StringP("name", "n", "", "Display name (defaults to the filename)")
	uploadCmd.Flags().Bool("async", false, "Defer processing to the pipeline worker")
	rootCmd.AddCommand(uploadCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List vaults, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			skip, _ := cmd.Flags().GetInt("skip")
			limit, _ := cmd.Flags().GetInt("limit")
			return runList(apiFlag, skip, limit, os.Stdout)
		},
	}
	listCmd.Flags().Int("skip", 0, "Number of vaults to skip")
	listCmd.Flags().Int("limit", 100, "Maximum number of vaults to return")
	rootCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get <vaultId>",
		Short: "Show one vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(apiFlag, args[0], os.Stdout)
		},
	}
	rootCmd.AddCommand(getCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <vaultId>",
		Short: "Delete a vault and its indexed notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(apiFlag, args[0], os.Stdout)
		},
	}
	rootCmd.AddCommand(deleteCmd)

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search notes in a vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultID, _ := cmd.Flags().GetString("vault")
			query, _ := cmd.Flags().GetString("query")
			topk, _ := cmd.Flags().GetInt("topk")
			if vaultID == "" {
				return fmt.Errorf("--vault required")
			}
			return runSearch(apiFlag, vaultID, query, topk, os.Stdout)
		},
	}
	searchCmd.Flags().StringP("vault", "v", "", "Vault ID (required)")
	searchCmd.Flags().StringP("query", "q", "", "Search query text (required)")
	searchCmd.Flags().IntP("topk", "k", 5, "Number of top results to return")
	_ = searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
