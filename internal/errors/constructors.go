package errors

// Convenience constructors for the error taxonomy of the decision engine.
// Manifest corruption is deliberately absent: an unparsable previous record
// is recovered as "no prior build", never surfaced as an error.

// Config errors

func ConfigNotFound(path string) *RelverError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *RelverError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Decision-run errors

// SourceTreeError covers a missing or unreadable artifact source directory.
// Fatal for the artifact; callers orchestrating multiple artifacts isolate it.
func SourceTreeError(root string, cause error) *RelverError {
	return Wrap(cause, CategoryInput, SeverityFatal, "source tree unreadable").
		WithContext("root", root)
}

// ExtractionError covers an entry-point file that exists but cannot be read.
// Distinct from "no entry point configured", which is a valid unknown.
func ExtractionError(path string, cause error) *RelverError {
	return Wrap(cause, CategoryExtract, SeverityFatal, "export extraction failed").
		WithContext("entry_point", path)
}

// ManifestWriteError covers a failed persist after a non-noop decision. The
// decision without a durable record would make the next run treat the
// artifact as unversioned, so this is fatal.
func ManifestWriteError(path string, cause error) *RelverError {
	return Wrap(cause, CategoryManifest, SeverityFatal, "manifest persist failed").
		WithContext("path", path)
}

// Infrastructure errors

func HistoryError(operation string, cause error) *RelverError {
	return WrapRetryable(cause, CategoryStorage, SeverityError, "history store operation failed").
		WithContext("operation", operation)
}

func PublishError(subject string, cause error) *RelverError {
	return WrapRetryable(cause, CategoryEvents, SeverityWarning, "decision event publish failed").
		WithContext("subject", subject)
}
