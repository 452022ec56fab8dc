// Package core holds the account and provider-linking contracts and the
// linking state machine. Store backends, provider adapters and the
// command layer depend on this package; core does not depend on them.
package core
