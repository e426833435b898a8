// aad.go provides typed constructors for associated data and context
// values. Both are plain byte strings at the AEAD/KDF boundary; the typed
// constructors exist so callers build stable, unambiguous layouts instead of
// hand-formatting separators themselves.
package envelope

import "strings"

const fieldSeparator = "|"

// AAD is caller-supplied data authenticated but not encrypted. It must match
// exactly between Seal and Open.
type AAD []byte

// RawAAD wraps arbitrary bytes as AAD with no structure imposed.
func RawAAD(b []byte) AAD {
	return AAD(b)
}

// StorageAAD builds AAD for an object in a storage bucket:
// bucket | object_id | version.
func StorageAAD(bucket, objectID, version string) AAD {
	return AAD(joinFields(bucket, objectID, version))
}

// DatabaseAAD builds AAD for a database cell: table | row_id | column.
func DatabaseAAD(table, rowID, column string) AAD {
	return AAD(joinFields(table, rowID, column))
}

// BackupAAD builds AAD for a backup artifact: system | timestamp.
func BackupAAD(system, timestamp string) AAD {
	return AAD(joinFields(system, timestamp))
}

// MessageAAD builds AAD for a message: sender | recipient | msg_id.
func MessageAAD(sender, recipient, msgID string) AAD {
	return AAD(joinFields(sender, recipient, msgID))
}

// Context is a domain-separation label bound into key derivation. A
// different context always derives a different AES key, even under the
// same hybrid key pair.
type Context []byte

// RawContext wraps arbitrary bytes as a context with no structure imposed.
func RawContext(b []byte) Context {
	return Context(b)
}

// ApplicationContext builds a context for an application/environment pair:
// app_name | environment.
func ApplicationContext(appName, environment string) Context {
	return Context(joinFields(appName, environment))
}

func joinFields(fields ...string) []byte {
	return []byte(strings.Join(fields, fieldSeparator))
}
