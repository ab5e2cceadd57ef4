package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vsbseal",
	Short: "vsbseal seals and opens post-quantum encrypted email envelopes",
	Long: `vsbseal is the VaultSandbox envelope tool. It generates inbox keys,
seals plaintext into ML-KEM-768 + ML-DSA-65 envelopes, opens them with an
inbox secret key, and runs the sealed-email API server.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
