// Package storage provides the durable blob capability backing the audit
// trail. The ObjectStore interface abstracts the concrete store so the audit
// sink can be exercised against a test double.
package storage

import (
	"context"
	"fmt"
)

// ObjectStore durably stores a local file as a named object. Implementations
// must be safe for concurrent use across in-flight requests.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath, filePath string) error
}

// Discard is an ObjectStore used when no real store is configured. Every
// upload fails, which the audit sink logs and absorbs.
type Discard struct{}

// Upload always reports the store as unconfigured.
func (Discard) Upload(ctx context.Context, objectPath, filePath string) error {
	return fmt.Errorf("object store not configured, dropping %s", objectPath)
}
