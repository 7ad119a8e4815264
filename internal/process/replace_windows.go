//go:build windows

package process

// Replace is not available on Windows.
func Replace(program string, args []string) error {
	return &ReplaceError{Program: program, Err: ErrUnsupported}
}
