package discovery

// configError signals that no state directory could be resolved at all
// (neither XDG_STATE_HOME nor a home directory is available).
type configError struct{ msg string }

func (e configError) Error() string { return e.msg }

// ErrConfig constructs a configError.
func ErrConfig(msg string) error { return configError{msg: msg} }

// IsConfig reports whether err indicates an unresolvable state directory.
func IsConfig(err error) bool {
	_, ok := err.(configError)
	return ok
}

// persistenceError signals a descriptor file that exists but cannot be parsed.
// Distinct from absence, which is a normal nil result.
type persistenceError struct {
	path string
	err  error
}

func (e persistenceError) Error() string {
	return "server descriptor unreadable: " + e.path + ": " + e.err.Error()
}

func (e persistenceError) Unwrap() error { return e.err }

// ErrPersistence constructs a persistenceError for the given file.
func ErrPersistence(path string, err error) error {
	return persistenceError{path: path, err: err}
}

// IsPersistence reports whether err indicates a corrupt descriptor file.
func IsPersistence(err error) bool {
	_, ok := err.(persistenceError)
	return ok
}
