//go:build !unix

package commands

// ExitCode returns 1 for any error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
