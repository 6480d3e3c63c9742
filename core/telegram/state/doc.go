// Package state keeps per-user practice sessions in memory.
//
// A session is created on first contact and lives for the lifetime of the
// process. Every mutation goes through Manager.Update, which rejects values
// outside the known level and state sets, so callers never observe them.
// Manager.Lock serialises a whole conversational turn for one user.
package state
