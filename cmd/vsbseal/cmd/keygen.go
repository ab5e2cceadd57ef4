package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	envelope "github.com/vaultsandbox/envelope-go"
	"github.com/vaultsandbox/envelope-go/keyring"
)

var (
	keygenKeyring string
	keygenOut     string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an inbox keypair pinned to this server's signing key",
	RunE: func(cmd *cobra.Command, args []string) error {
		kr, err := keyring.Open(keygenKeyring)
		if err != nil {
			return fmt.Errorf("open keyring: %w", err)
		}
		defer kr.Close()

		kp, err := envelope.GenerateKeypair()
		if err != nil {
			return fmt.Errorf("generate keypair: %w", err)
		}

		exported := kp.Export(kr.PublicKey())
		data, err := json.MarshalIndent(exported, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(keygenOut, append(data, '\n'), 0600); err != nil {
			return fmt.Errorf("write key file: %w", err)
		}

		fmt.Printf("wrote %s\n", keygenOut)
		fmt.Printf("public key: %s\n", kp.PublicKeyB64)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenKeyring, "keyring", "./data/keyring.db", "Path to the server keyring database")
	keygenCmd.Flags().StringVarP(&keygenOut, "out", "o", "inbox-keys.json", "Output file for the exported inbox keys")
}
