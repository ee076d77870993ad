// Package testutil provides fluent builders for constructing sessions and
// events in tests across packages.
package testutil
