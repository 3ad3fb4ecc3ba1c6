// Package config handles ferry configuration: the YAML file, .env files and
// environment overrides.
package config

import (
	"os"
	"regexp"
)

// LookupFunc resolves a variable name, reporting whether it is set.
type LookupFunc func(name string) (string, bool)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// - ${VAR} expands to the variable value, or empty string if unset
// - ${VAR:-default} expands to the variable value, or "default" if unset/empty
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv expands ${VAR} and ${VAR:-default} from the process environment.
func ExpandEnv(input string) string {
	return Expand(input, os.LookupEnv)
}

// Expand replaces ${VAR} and ${VAR:-default} patterns in input using lookup.
//
// Unset variables without defaults expand to empty string (not an error);
// missing required values are caught by Config.Validate.
func Expand(input string, lookup LookupFunc) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}

		if value, ok := lookup(groups[1]); ok && value != "" {
			return value
		}

		// groups[2] is the default value
		if len(groups) >= 3 && groups[2] != "" {
			return groups[2]
		}
		return ""
	})
}
