package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	envelope "github.com/vaultsandbox/envelope-go"
	"github.com/vaultsandbox/envelope-go/keyring"
)

var (
	sealKeyring string
	sealKeys    string
	sealIn      string
	sealOut     string
	sealAAD     string
)

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Seal a plaintext file into an envelope",
	Long: `Seal encrypts a plaintext file for the inbox whose exported keys are
given with --keys, signing the envelope with the server keyring. The result
is a JSON envelope that only the inbox secret key can open.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kr, err := keyring.Open(sealKeyring)
		if err != nil {
			return fmt.Errorf("open keyring: %w", err)
		}
		defer kr.Close()

		signer, err := kr.Signer()
		if err != nil {
			return fmt.Errorf("load signer: %w", err)
		}

		keypair, _, err := loadKeys(sealKeys)
		if err != nil {
			return err
		}

		plaintext, err := os.ReadFile(sealIn)
		if err != nil {
			return fmt.Errorf("read plaintext: %w", err)
		}

		env, err := envelope.Seal(plaintext, keypair.PublicKey, []byte(sealAAD), signer)
		if err != nil {
			return fmt.Errorf("seal: %w", err)
		}

		data, err := env.Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(sealOut, append(data, '\n'), 0600); err != nil {
			return fmt.Errorf("write envelope: %w", err)
		}

		fmt.Printf("sealed %d bytes into %s\n", len(plaintext), sealOut)
		return nil
	},
}

// loadKeys restores an inbox keypair and its pinned server signing key from
// an exported key file.
func loadKeys(path string) (*envelope.Keypair, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read key file: %w", err)
	}
	exported, err := envelope.ParseExportedKeys(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse key file: %w", err)
	}
	return exported.Restore()
}

func init() {
	rootCmd.AddCommand(sealCmd)
	sealCmd.Flags().StringVar(&sealKeyring, "keyring", "./data/keyring.db", "Path to the server keyring database")
	sealCmd.Flags().StringVar(&sealKeys, "keys", "inbox-keys.json", "Exported inbox key file")
	sealCmd.Flags().StringVarP(&sealIn, "in", "i", "", "Plaintext input file")
	sealCmd.Flags().StringVarP(&sealOut, "out", "o", "envelope.json", "Envelope output file")
	sealCmd.Flags().StringVar(&sealAAD, "aad", "", "Additional authenticated data to bind into the envelope")
	_ = sealCmd.MarkFlagRequired("in")
}
