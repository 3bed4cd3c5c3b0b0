package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *CheckError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *CheckError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *CheckError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Scan errors

func RootUnreadable(root string, cause error) *CheckError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "cannot read documentation root").
		WithContext("root", root)
}

func DocumentUnreadable(path string, cause error) *CheckError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "cannot read document").
		WithContext("document", path)
}

// BrokenLinksFound is the verdict returned when a run recorded failures.
func BrokenLinksFound(count int) *CheckError {
	return New(CategoryLinks, SeverityError, "broken links found").
		WithContext("count", count)
}

// External systems

func CacheError(operation string, cause error) *CheckError {
	return Wrap(cause, CategoryCache, SeverityWarning, "link cache operation failed").
		WithContext("operation", operation)
}

func BrokerUnavailable(url string, cause error) *CheckError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "message broker unreachable").
		WithContext("url", url)
}

func PublishError(subject string, cause error) *CheckError {
	return WrapRetryable(cause, CategoryEvents, SeverityWarning, "broken link event publish failed").
		WithContext("subject", subject)
}

// Internal errors

func InternalError(message string, cause error) *CheckError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
