package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/citadel-sec/citadel/pkg/envelope"
	"github.com/citadel-sec/citadel/pkg/hybridkem"
)

var (
	openSecIn      string
	openCiphertext string
	openAAD        string
	openContext    string
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a ciphertext produced by 'seal' under its matching secret key",
	RunE: func(cmd *cobra.Command, args []string) error {
		secBytes, err := readBase64File(openSecIn)
		if err != nil {
			return err
		}
		kp, err := hybridkem.ParseKeyPair(secBytes)
		if err != nil {
			return fmt.Errorf("parse secret key: %w", err)
		}
		defer kp.Zeroize()

		var blob []byte
		if openCiphertext == "-" {
			encoded, err := readAllStdin()
			if err != nil {
				return err
			}
			blob, err = base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return fmt.Errorf("decode stdin: %w", err)
			}
		} else {
			blob, err = readBase64File(openCiphertext)
			if err != nil {
				return err
			}
		}

		plaintext, err := envelope.Open(kp, blob, envelope.RawAAD([]byte(openAAD)), envelope.RawContext([]byte(openContext)))
		if err != nil {
			// Single opaque message for every decryption failure.
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(plaintext))
		return nil
	},
}

func init() {
	openCmd.Flags().StringVar(&openSecIn, "sec", "citadel.sec", "path to the base64-encoded secret key")
	openCmd.Flags().StringVar(&openCiphertext, "ciphertext", "-", "path to the base64-encoded ciphertext, or - for stdin")
	openCmd.Flags().StringVar(&openAAD, "aad", "", "raw associated data, must match the value used at seal time")
	openCmd.Flags().StringVar(&openContext, "context", "", "raw domain-separation context, must match the value used at seal time")
	rootCmd.AddCommand(openCmd)
}

func readAllStdin() (string, error) {
	buf, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(buf), nil
}
