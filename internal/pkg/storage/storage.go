// Package storage persists small client-side key/value state across restarts,
// the equivalent of a browser's localStorage for the running application.
package storage

// Store is a string key/value store with multi-key atomic writes. Save and
// Delete either apply to every key given or to none of them.
type Store interface {
	// Load returns the values present for keys. Missing keys are absent from
	// the result rather than reported as errors.
	Load(keys ...string) (map[string]string, error)
	Save(entries map[string]string) error
	Delete(keys ...string) error
}
