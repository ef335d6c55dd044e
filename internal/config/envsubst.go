package config

import (
	"os"
	"regexp"
)

// envVarPattern matches $$, ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LookupFunc resolves a variable name.
type LookupFunc func(name string) (string, bool)

// Expand replaces variable references in input using lookup:
//   - ${VAR} becomes the value of VAR, or "" when unset
//   - ${VAR:-default} falls back to default when unset
//   - $$ is a literal $
func Expand(input string, lookup LookupFunc) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		if match == "$$" {
			return "$"
		}
		sub := envVarPattern.FindStringSubmatch(match)
		if val, ok := lookup(sub[1]); ok {
			return val
		}
		return sub[2]
	})
}

// ExpandEnvVars expands references against the process environment.
func ExpandEnvVars(input string) string {
	return Expand(input, os.LookupEnv)
}

// ExpandEnvVarsBytes is a convenience wrapper for byte slices.
func ExpandEnvVarsBytes(input []byte) []byte {
	return []byte(ExpandEnvVars(string(input)))
}
