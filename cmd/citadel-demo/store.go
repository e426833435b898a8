package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/citadel-sec/citadel/internal/constants"
	"github.com/citadel-sec/citadel/internal/keystore"
	"github.com/citadel-sec/citadel/internal/threat"
	"github.com/citadel-sec/citadel/pkg/envelope"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Drive the Root/Domain/KEK/DEK key hierarchy and its lifecycle",
}

func init() {
	rootCmd.AddCommand(storeCmd)
}

// openStore opens the keystore rooted at cfg.DataDir. Each invocation of
// citadel-demo is a fresh process, so the threat engine always starts at
// ThreatLevelLow: threat score is ephemeral, only the key records and audit
// chain persist.
func openStore() (*keystore.Store, error) {
	return keystore.Open(cfg.DataDir, cfg.RootPassphrase, threat.New(), log)
}

func parseKeyType(s string) (constants.KeyType, error) {
	switch s {
	case "root":
		return constants.KeyTypeRoot, nil
	case "domain":
		return constants.KeyTypeDomain, nil
	case "kek":
		return constants.KeyTypeKEK, nil
	case "dek":
		return constants.KeyTypeDEK, nil
	default:
		return 0, fmt.Errorf("unknown key type %q (want root, domain, kek, or dek)", s)
	}
}

func printRecord(cmd *cobra.Command, r *keystore.KeyRecord) {
	fmt.Fprintf(cmd.OutOrStdout(), "id:       %s\n", r.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "type:     %s\n", r.Type)
	fmt.Fprintf(cmd.OutOrStdout(), "state:    %s\n", r.State)
	fmt.Fprintf(cmd.OutOrStdout(), "version:  %d\n", r.Version)
	fmt.Fprintf(cmd.OutOrStdout(), "parent:   %s\n", r.ParentID)
	fmt.Fprintf(cmd.OutOrStdout(), "policy:   %s\n", r.PolicyID)
	fmt.Fprintf(cmd.OutOrStdout(), "usage:    %d\n", r.UsageCount)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the data directory, optionally seeding a demo hierarchy",
	Long: `init creates the keystore's data directory, audit log, and keys
subdirectory. With --demo-seed (or CITADEL_DEMO_SEED=true), it also seeds a
complete Root -> Domain -> KEK -> DEK chain under a 90-day "default" policy
and activates every level, so encrypt/decrypt work immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if !cfg.DemoSeed {
			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", cfg.DataDir)
			return nil
		}

		if err := s.SetPolicy(keystore.Policy{ID: "default", BaseRotationDays: 90, BaseGraceDays: 7}); err != nil {
			return fmt.Errorf("set policy: %w", err)
		}

		parentID := ""
		for _, kt := range []constants.KeyType{
			constants.KeyTypeRoot,
			constants.KeyTypeDomain,
			constants.KeyTypeKEK,
			constants.KeyTypeDEK,
		} {
			r, err := s.Generate(kt, parentID, "default")
			if err != nil {
				return fmt.Errorf("seed %s: %w", kt, err)
			}
			if err := s.Activate(r.ID); err != nil {
				return fmt.Errorf("activate seeded %s: %w", kt, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %-6s %s\n", kt, r.ID)
			parentID = r.ID
		}
		return nil
	},
}

func init() {
	storeCmd.AddCommand(initCmd)
}

var (
	generateType      string
	generateParentID  string
	generatePolicyID  string
	generateRotDays   float64
	generateGraceDays float64
	generateMaxLife   float64
	generateUsageCap  uint64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a Pending key record under an optional parent",
	RunE: func(cmd *cobra.Command, args []string) error {
		kt, err := parseKeyType(generateType)
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		policy := keystore.Policy{
			ID:               generatePolicyID,
			BaseRotationDays: generateRotDays,
			BaseGraceDays:    generateGraceDays,
		}
		if generateMaxLife > 0 {
			policy.BaseMaxLifetime = &generateMaxLife
		}
		if generateUsageCap > 0 {
			policy.BaseUsageLimit = &generateUsageCap
		}
		if err := s.SetPolicy(policy); err != nil {
			return fmt.Errorf("set policy: %w", err)
		}

		r, err := s.Generate(kt, generateParentID, generatePolicyID)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		printRecord(cmd, r)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateType, "type", "dek", "key type: root, domain, kek, or dek")
	generateCmd.Flags().StringVar(&generateParentID, "parent", "", "parent key id (required for domain/kek/dek)")
	generateCmd.Flags().StringVar(&generatePolicyID, "policy-id", "default", "policy id to attach to this key")
	generateCmd.Flags().Float64Var(&generateRotDays, "rotation-days", 90, "base rotation age, in days")
	generateCmd.Flags().Float64Var(&generateGraceDays, "grace-days", 7, "base grace period after rotation, in days")
	generateCmd.Flags().Float64Var(&generateMaxLife, "max-lifetime-days", 0, "base max lifetime, in days (0 disables the check)")
	generateCmd.Flags().Uint64Var(&generateUsageCap, "usage-limit", 0, "base usage ceiling (0 disables the check)")
	storeCmd.AddCommand(generateCmd)
}

var activateCmd = &cobra.Command{
	Use:   "activate <key-id>",
	Short: "Move a Pending record to Active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Activate(args[0]); err != nil {
			return fmt.Errorf("activate: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s activated\n", args[0])
		return nil
	},
}

var (
	encryptAAD     string
	encryptContext string
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt <key-id> <plaintext>",
	Short: "Seal plaintext under an Active key, enforcing its policy gate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		blob, err := s.Encrypt(args[0], []byte(args[1]), envelope.RawAAD([]byte(encryptAAD)), envelope.RawContext([]byte(encryptContext)))
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%x\n", blob)
		return nil
	},
}

func init() {
	encryptCmd.Flags().StringVar(&encryptAAD, "aad", "", "raw associated data")
	encryptCmd.Flags().StringVar(&encryptContext, "context", "", "raw domain-separation context")
	storeCmd.AddCommand(encryptCmd)
}

var (
	decryptAAD     string
	decryptContext string
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt <key-id> <hex-ciphertext>",
	Short: "Open a ciphertext under an Active or Rotated (grace) key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		blob, err := hex.DecodeString(args[1])
		if err != nil {
			return fmt.Errorf("decode hex ciphertext: %w", err)
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		plaintext, err := s.Decrypt(args[0], blob, envelope.RawAAD([]byte(decryptAAD)), envelope.RawContext([]byte(decryptContext)))
		if err != nil {
			// Uniform open error: no distinction surfaced between wrong key,
			// tampered ciphertext, or mismatched AAD/context.
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(plaintext))
		return nil
	},
}

func init() {
	decryptCmd.Flags().StringVar(&decryptAAD, "aad", "", "raw associated data, must match encrypt")
	decryptCmd.Flags().StringVar(&decryptContext, "context", "", "raw domain-separation context, must match encrypt")
	storeCmd.AddCommand(decryptCmd)
}

func simpleStoreCommand(use, short string, op func(*keystore.Store, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <key-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			if err := op(s, args[0]); err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], use)
			return nil
		},
	}
}

func init() {
	storeCmd.AddCommand(activateCmd)
	storeCmd.AddCommand(simpleStoreCommand("rotate", "Move an Active record to Rotated, starting its grace period", (*keystore.Store).Rotate))
	storeCmd.AddCommand(simpleStoreCommand("suspend", "Move an Active record to Suspended", (*keystore.Store).Suspend))
	storeCmd.AddCommand(simpleStoreCommand("resume", "Move a Suspended record back to Active", (*keystore.Store).Resume))
	storeCmd.AddCommand(simpleStoreCommand("destroy", "Move any non-terminal record to Destroyed, discarding its material", (*keystore.Store).Destroy))
}

var revokeReason string

var revokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Move any non-terminal record to Revoked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Revoke(args[0], revokeReason); err != nil {
			return fmt.Errorf("revoke: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s revoked: %s\n", args[0], revokeReason)
		return nil
	},
}

func init() {
	revokeCmd.Flags().StringVar(&revokeReason, "reason", "", "mandatory reason for revocation")
	_ = revokeCmd.MarkFlagRequired("reason")
	storeCmd.AddCommand(revokeCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Destroy every Rotated record whose grace period has elapsed",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		destroyed, err := s.ExpireSweep()
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		for _, id := range destroyed {
			fmt.Fprintf(cmd.OutOrStdout(), "destroyed: %s\n", id)
		}
		if len(destroyed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to sweep")
		}
		return nil
	},
}

func init() {
	storeCmd.AddCommand(sweepCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <key-id>",
	Short: "Print a single key record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		r, err := s.Get(args[0])
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		printRecord(cmd, r)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every key record known to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		for _, r := range s.List() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-6s  %-9s  v%d  usage=%d\n", r.ID, r.Type, r.State, r.Version, r.UsageCount)
		}
		return nil
	},
}

func init() {
	storeCmd.AddCommand(getCmd)
	storeCmd.AddCommand(listCmd)
}
