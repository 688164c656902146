package auditlog

import "context"

// Metadata describes what a command acted on. Commands attach it to their
// context once the resource is known; the recorder reads it afterwards.
type Metadata struct {
	Account      string
	ResourceType string
	ResourceID   string
	ResourceName string
}

// Annotation is the cobra annotation key that marks a command as audited.
const Annotation = "audit"

type metadataKey struct{}

// WithMetadata attaches audit metadata to a context, merging with any
// metadata already present. Non-empty fields of meta win.
func WithMetadata(ctx context.Context, meta Metadata) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	existing, _ := ctx.Value(metadataKey{}).(Metadata)
	merged := Metadata{
		Account:      pick(meta.Account, existing.Account),
		ResourceType: pick(meta.ResourceType, existing.ResourceType),
		ResourceID:   pick(meta.ResourceID, existing.ResourceID),
		ResourceName: pick(meta.ResourceName, existing.ResourceName),
	}
	return context.WithValue(ctx, metadataKey{}, merged)
}

// MetadataFromContext returns audit metadata stored in the context.
func MetadataFromContext(ctx context.Context) Metadata {
	if ctx == nil {
		return Metadata{}
	}
	meta, _ := ctx.Value(metadataKey{}).(Metadata)
	return meta
}

func pick(next, fallback string) string {
	if next != "" {
		return next
	}
	return fallback
}
