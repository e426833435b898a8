package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/citadel-sec/citadel/internal/telemetry"
)

// recordPath returns the path a key record is persisted at:
// <keys_dir>/<key_id>.json.
func recordPath(keysDir, id string) string {
	return filepath.Join(keysDir, id+".json")
}

// policiesPath returns the path the policy templates are persisted at:
// <data_dir>/policies.json.
func policiesPath(dataDir string) string {
	return filepath.Join(dataDir, "policies.json")
}

// savePolicies writes the full policy-template map as one JSON file.
// Policies are small and change rarely, so rewriting the whole file on each
// SetPolicy keeps the format trivially readable.
func savePolicies(dataDir string, policies map[string]Policy) error {
	data, err := json.MarshalIndent(policies, "", "  ")
	if err != nil {
		return fmt.Errorf("keystore: marshal policies: %w", err)
	}
	return os.WriteFile(policiesPath(dataDir), data, 0o600)
}

// loadPolicies reads the persisted policy templates. A missing file is a
// fresh store; a corrupt file is logged and treated as empty, matching the
// log-and-continue posture for corrupt key records.
func loadPolicies(dataDir string, log *telemetry.Logger) map[string]Policy {
	policies := make(map[string]Policy)

	data, err := os.ReadFile(policiesPath(dataDir))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("keystore: failed to read policies file, starting empty", telemetry.Fields{"error": err.Error()})
		}
		return policies
	}
	if err := json.Unmarshal(data, &policies); err != nil {
		log.Warn("keystore: corrupt policies file, starting empty", telemetry.Fields{"error": err.Error()})
		return make(map[string]Policy)
	}
	return policies
}

// saveRecord writes a key record to its JSON file with restricted
// permissions. This is the only disk write on the keystore's write-lock
// critical path, and it is expected to be fast.
func saveRecord(keysDir string, r *KeyRecord) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("keystore: marshal record %s: %w", r.ID, err)
	}
	return os.WriteFile(recordPath(keysDir, r.ID), data, 0o600)
}

// loadAllRecords reads every record file in keysDir. A corrupt file (JSON
// invalid) is logged and skipped, not fatal: the keystore continues
// rebuilding from the records it can parse, and the missing key is reported
// not-found on access.
func loadAllRecords(keysDir string, log *telemetry.Logger) ([]*KeyRecord, error) {
	entries, err := os.ReadDir(keysDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("keystore: read keys dir: %w", err)
	}

	var records []*KeyRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(keysDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("keystore: failed to read key record file, skipping", telemetry.Fields{"path": path, "error": err.Error()})
			continue
		}

		var r KeyRecord
		if err := json.Unmarshal(data, &r); err != nil {
			log.Warn("keystore: corrupt key record file, skipping", telemetry.Fields{"path": path, "error": err.Error()})
			continue
		}
		records = append(records, &r)
	}
	return records, nil
}
