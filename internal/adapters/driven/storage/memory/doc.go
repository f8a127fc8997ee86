// Package memory provides in-memory implementations of the driven ports.
// They back tests and throwaway engines; nothing is persisted.
package memory
