// Package cli provides the interactive waterwatch terminal client.
//
// It wires configuration, the encrypted local store, the account manager and
// the report service behind a small REPL. Typical flow: register, log in,
// file water quality reports and review them.
//
// Key features:
//   - Register / Login / Logout / WhoAmI
//   - Change password and edit profile
//   - Submit, list, show, re-status and delete reports
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
