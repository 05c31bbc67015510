// Package sqlite stores the product catalog and, optionally, index
// generations in a single SQLite file using the pure Go modernc.org/sqlite
// driver.
//
// Two ports share one connection:
//
//   - ProductStore: the imported catalog in the products table. Replace
//     swaps the whole catalog in one transaction, so readers see either the
//     old or the new import.
//   - BlobStore: the blobs table, keyed by location. Used when
//     index.backend is "sqlite"; each Write is a single upsert.
//
// The schema lives in migrations/ as numbered .up.sql and .down.sql pairs
// applied on open. The database runs in WAL mode, so an MCP server can keep
// answering while another process rebuilds. A rebuild that commits touches
// catalog.db-wal, which is what `mcp serve --watch` listens for.
package sqlite
