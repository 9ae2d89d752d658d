package errors

// Convenience functions for common error patterns

// Config errors

func ConfigInvalid(path string, cause error) *BlogError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration could not be loaded").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *BlogError {
	return New(CategoryValidation, SeverityFatal, "invalid "+field+": "+reason).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Content and render errors

func PostLoadFailed(slug string, cause error) *BlogError {
	return Wrap(cause, CategoryContent, SeverityFatal, "post could not be loaded").
		WithContext("slug", slug)
}

func TemplateFailed(name string, cause error) *BlogError {
	return Wrap(cause, CategoryRender, SeverityFatal, "template failed").
		WithContext("template", name)
}

func MarkdownFailed(slug string, cause error) *BlogError {
	return Wrap(cause, CategoryRender, SeverityFatal, "markdown rendering failed").
		WithContext("slug", slug)
}

// Build pipeline errors

func BuildFailed(stage string, cause error) *BlogError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func OutputError(operation, path string, cause error) *BlogError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output operation failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

// Server errors

func OutputDirMissing(path string) *BlogError {
	return New(CategoryServer, SeverityFatal, "output directory does not exist; run 'blogbuilder build' first").
		WithContext("path", path)
}

func ListenFailed(addr string, cause error) *BlogError {
	return Wrap(cause, CategoryServer, SeverityFatal, "could not listen").
		WithContext("addr", addr)
}

// Internal errors

func InternalError(message string, cause error) *BlogError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
