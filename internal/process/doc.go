// Package process duplicates the running program, replaces the duplicate's image
// with an external executable, and waits for it in the original.
//
// Go cannot fork a running multi-threaded runtime, so duplication re-executes the
// program's own image with a role marker in the environment. The duplicate reaches
// the same Spawn call, observes the marker and takes the Child branch; the original
// takes the Parent branch holding a Handle to the duplicate.
//
// Image replacement is only available on Unix. On Windows Replace always fails with
// ErrUnsupported.
package process
