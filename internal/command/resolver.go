// Package command resolves what the terminal session executes.
package command

// ShellPath is the interpreter used to run an explicit command string, so
// shell metacharacters in the command behave as expected.
const ShellPath = "/bin/sh"

// Resolve produces the argument vector for the session's child process.
//
// With an explicit command the vector is [ShellPath, command]; the command is
// always run through a shell rather than exec'd directly. Without one, the
// vector is the user's login shell from the live SHELL variable. An unset
// SHELL yields a vector with a single empty path; that configuration error
// surfaces when the spawn itself fails, never here.
func Resolve(cmd string, getenv func(string) string) []string {
	if cmd != "" {
		return []string{ShellPath, cmd}
	}
	return []string{getenv("SHELL")}
}
