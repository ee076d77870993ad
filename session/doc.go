// Package session provides SessionStore implementations for persisting
// conversational sessions, their state and event history.
package session
