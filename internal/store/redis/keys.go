package redis

const (
	// KeyPrefix namespaces every key the service writes.
	KeyPrefix = "jobwatch:"
	// KeyLedger holds the full ledger snapshot as one JSON document.
	KeyLedger = KeyPrefix + "ledger"
)

// LedgerKey returns the snapshot key, optionally scoped by an instance name
// so several deployments can share one database.
func LedgerKey(instance string) string {
	if instance == "" {
		return KeyLedger
	}
	return KeyLedger + ":" + instance
}
