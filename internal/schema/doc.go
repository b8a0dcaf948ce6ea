// Package schema defines the Task record and the column layout of the
// tasks table.
//
// The column allow-list is fixed at package init and never mutated, so it is
// safe to share across goroutines without synchronization.
//
// # Writes
//
// Inserts and updates do not take free-form key/value maps. They take a
// Values, which holds one optional slot per writable column. A slot is
// either absent, set to a value, or (for nullable columns) set to NULL.
// The id column is store-assigned and has no slot.
package schema
