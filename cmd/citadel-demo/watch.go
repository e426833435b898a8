package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/citadel-sec/citadel/internal/constants"
	"github.com/citadel-sec/citadel/internal/threat"
)

var threatCmd = &cobra.Command{
	Use:   "threat",
	Short: "Inspect and drive the threat-adaptive policy engine",
}

var threatWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the threat score and level on a fixed interval until interrupted",
	Long: `watch polls a freshly-started engine at --threat-tick (see the
persistent flag) to show how the score decays between ticks. It is a
standalone demonstration: the keystore's own threat engine lives for the
lifetime of a single long-running process, not across citadel-demo
invocations, since the score is ephemeral and never persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := threat.New()
		if threatIngest != "" {
			sev, err := severityFor(threatIngest)
			if err != nil {
				return err
			}
			eng.Ingest(sev)
		}

		ticker := time.NewTicker(cfg.ThreatTick)
		defer ticker.Stop()

		fmt.Fprintf(cmd.OutOrStdout(), "score=%.3f level=%s\n", eng.Score(), eng.Level())
		for i := 0; i < 5; i++ {
			<-ticker.C
			fmt.Fprintf(cmd.OutOrStdout(), "score=%.3f level=%s\n", eng.Score(), eng.Level())
		}
		return nil
	},
}

var threatIngest string

var threatIngestCmd = &cobra.Command{
	Use:   "ingest <event>",
	Short: "Ingest a single threat event into a fresh engine and print the result",
	Long:  "event is one of: decryption-failure, auth-failure, rapid-access, anomalous-access, key-enumeration, external-advisory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sev, err := severityFor(args[0])
		if err != nil {
			return err
		}
		eng := threat.New()
		level := eng.Ingest(sev)
		fmt.Fprintf(cmd.OutOrStdout(), "score=%.3f level=%s\n", eng.Score(), level)
		return nil
	},
}

func severityFor(event string) (float64, error) {
	switch event {
	case "decryption-failure":
		return constants.SeverityDecryptionFailure, nil
	case "auth-failure":
		return constants.SeverityAuthFailure, nil
	case "rapid-access":
		return constants.SeverityRapidAccessPattern, nil
	case "anomalous-access":
		return constants.SeverityAnomalousAccess, nil
	case "key-enumeration":
		return constants.SeverityKeyEnumeration, nil
	case "external-advisory":
		return constants.SeverityExternalAdvisory, nil
	default:
		return 0, fmt.Errorf("unknown event %q", event)
	}
}

func init() {
	threatWatchCmd.Flags().StringVar(&threatIngest, "ingest", "", "optionally ingest one event before watching decay")
	threatCmd.AddCommand(threatWatchCmd)
	threatCmd.AddCommand(threatIngestCmd)
	rootCmd.AddCommand(threatCmd)
}
