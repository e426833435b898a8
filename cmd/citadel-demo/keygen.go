package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/citadel-sec/citadel/pkg/hybridkem"
)

var (
	keygenPubOut string
	keygenSecOut string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a standalone hybrid key pair and write it to files",
	Long: `keygen generates an X25519 + ML-KEM-768 hybrid key pair outside the
keystore's lifecycle machinery, for quick seal/open experiments. Production
keys should instead come from 'store generate' so they participate in the
rotation, policy, and audit machinery.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kp, err := hybridkem.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generate key pair: %w", err)
		}
		defer kp.Zeroize()

		pubBytes := kp.PublicKey().Bytes()
		secBytes := kp.Bytes()

		if err := os.WriteFile(keygenPubOut, []byte(base64.StdEncoding.EncodeToString(pubBytes)), 0o644); err != nil {
			return fmt.Errorf("write public key: %w", err)
		}
		if err := os.WriteFile(keygenSecOut, []byte(base64.StdEncoding.EncodeToString(secBytes)), 0o600); err != nil {
			return fmt.Errorf("write secret key: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "public key  -> %s (%d bytes)\n", keygenPubOut, len(pubBytes))
		fmt.Fprintf(cmd.OutOrStdout(), "secret key  -> %s (%d bytes)\n", keygenSecOut, len(secBytes))
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenPubOut, "pub-out", "citadel.pub", "output path for the base64-encoded public key")
	keygenCmd.Flags().StringVar(&keygenSecOut, "sec-out", "citadel.sec", "output path for the base64-encoded secret key")
	rootCmd.AddCommand(keygenCmd)
}

func readBase64File(path string) ([]byte, error) {
	encoded, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	decoded, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return decoded, nil
}
