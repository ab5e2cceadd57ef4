package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	envelope "github.com/vaultsandbox/envelope-go"
)

var (
	openKeys string
	openIn   string
	openOut  string
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open an envelope with the inbox secret key",
	Long: `Open verifies an envelope's signature against the server key pinned in
the exported key file, then decrypts it. Verification failures, wrong keys and
tampered ciphertext all abort before any plaintext is produced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keypair, serverSigPk, err := loadKeys(openKeys)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(openIn)
		if err != nil {
			return fmt.Errorf("read envelope: %w", err)
		}
		env, err := envelope.ParseEnvelope(data)
		if err != nil {
			return fmt.Errorf("parse envelope: %w", err)
		}

		plaintext, err := envelope.Open(env, keypair,
			envelope.WithPinnedServerKey(serverSigPk))
		if err != nil {
			return fmt.Errorf("open: %w", err)
		}

		if openOut == "-" {
			_, err = os.Stdout.Write(plaintext)
			return err
		}
		if err := os.WriteFile(openOut, plaintext, 0600); err != nil {
			return fmt.Errorf("write plaintext: %w", err)
		}

		fmt.Printf("opened %d bytes into %s\n", len(plaintext), openOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVar(&openKeys, "keys", "inbox-keys.json", "Exported inbox key file")
	openCmd.Flags().StringVarP(&openIn, "in", "i", "envelope.json", "Envelope input file")
	openCmd.Flags().StringVarP(&openOut, "out", "o", "-", "Plaintext output file ('-' for stdout)")
}
