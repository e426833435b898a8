package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/citadel-sec/citadel/pkg/envelope"
	"github.com/citadel-sec/citadel/pkg/hybridkem"
)

var (
	sealPubIn     string
	sealPlaintext string
	sealAAD       string
	sealContext   string
	sealOut       string
)

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Seal plaintext under a standalone hybrid public key",
	RunE: func(cmd *cobra.Command, args []string) error {
		pubBytes, err := readBase64File(sealPubIn)
		if err != nil {
			return err
		}
		pk, err := hybridkem.ParsePublicKey(pubBytes)
		if err != nil {
			return fmt.Errorf("parse public key: %w", err)
		}

		blob, err := envelope.Seal(pk, []byte(sealPlaintext), envelope.RawAAD([]byte(sealAAD)), envelope.RawContext([]byte(sealContext)))
		if err != nil {
			return fmt.Errorf("seal: %w", err)
		}

		encoded := base64.StdEncoding.EncodeToString(blob)
		if sealOut == "-" {
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		}
		if err := os.WriteFile(sealOut, []byte(encoded), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", sealOut, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ciphertext -> %s (%d bytes)\n", sealOut, len(blob))
		return nil
	},
}

func init() {
	sealCmd.Flags().StringVar(&sealPubIn, "pub", "citadel.pub", "path to the base64-encoded public key")
	sealCmd.Flags().StringVar(&sealPlaintext, "plaintext", "", "plaintext to seal")
	sealCmd.Flags().StringVar(&sealAAD, "aad", "", "raw associated data, must match on open")
	sealCmd.Flags().StringVar(&sealContext, "context", "", "raw domain-separation context, must match on open")
	sealCmd.Flags().StringVar(&sealOut, "out", "-", "output path for the base64-encoded ciphertext, or - for stdout")
	_ = sealCmd.MarkFlagRequired("plaintext")
	rootCmd.AddCommand(sealCmd)
}
