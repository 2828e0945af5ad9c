// Package state holds per-user conversation state for Telegram bots: the
// wizard cursor with its draft fields, the admin-mode flag and the record of
// the last bot-authored screen. Stores are keyed by Telegram user id and are
// injected wherever state is read, so the memory and Redis backends are
// interchangeable.
package state
