// Package repositories implements SQLite persistence for the auth context and the login history.
//
// Key Implementations:
//   - [AuthContextRepository] : durable auth.Store backed by the auth_context table
//   - [AuthEventRepository] : append-only record of login outcomes
//
// Both expect a database opened with shared.OpenDatabase (or shared.NewDatabase followed by
// shared.RunMigrations).
package repositories
