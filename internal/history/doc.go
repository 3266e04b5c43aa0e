// Package history records finished imports so the dashboard can show a
// user's recent activity.
//
// Two stores are provided: MemoryStore keeps a bounded list per process and
// PostgresStore persists entries in the import_history table.
package history
