package domain

// StoredBlob is the blob-store side of a successful image upload. ExternalRef
// is the opaque deletion handle; it is empty for inline fallbacks.
type StoredBlob struct {
	URL         string
	ExternalRef string
	ByteSize    int64
}

// ExtractionResult is one outcome of the external extraction call.
// ParseFailed marks the degraded-success class: the transport call worked but
// the content was not parseable; Raw is preserved so the user is not left
// with nothing.
type ExtractionResult struct {
	Analysis    *AIAnalysis
	Raw         string
	ParseFailed bool
}
