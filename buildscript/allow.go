package buildscript

// DefaultAllowedCommands is the baseline external-command allowlist for a
// BuildScript: POSIX file/text utilities plus the build-system drivers
// every toolchain frontend ultimately shells out to. Callers merge in
// whatever binaries are actually linked into a build's destdir.
func DefaultAllowedCommands() map[string]bool {
	cmds := []string{
		":", ".", "cd", "echo", "exit", "export", "set", "test", "true", "false",
		"cat", "cp", "mv", "rm", "rmdir", "mkdir", "ln", "ls", "find", "grep",
		"sed", "awk", "cut", "sort", "uniq", "head", "tail", "wc", "xargs",
		"tar", "gzip", "patch", "touch", "chmod", "pwd", "basename", "dirname",
		"make", "cmake", "ninja", "meson", "bazel", "cargo", "sh", "bash",
		"cc", "gcc", "g++", "clang", "clang++", "ld", "ar", "ranlib", "nm", "strip", "objcopy",
	}
	out := make(map[string]bool, len(cmds))
	for _, c := range cmds {
		out[c] = true
	}
	return out
}
