// Package main implements the bitbox command line client: account
// setup, encrypted upload and download, sharing, key escrow, and file
// synchronization.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "bitbox",
	Short: "Encrypted file storage and synchronization",
	Long: `bitbox stores files on a remote server without the server ever
seeing their contents: every file is encrypted on this machine with a
key only you (and the people you share with) can unwrap.`,
	SilenceUsage: true,
}

func init() {
	defaultServer := os.Getenv("BITBOX_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8000"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "server base URL")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(otcCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
