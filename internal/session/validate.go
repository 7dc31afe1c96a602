package session

import (
	"fmt"
	"regexp"
)

const namePattern = `^[a-z0-9_-]{1,64}$`

var nameRegexp = regexp.MustCompile(namePattern)

// ValidateName rejects names that are unsafe as a directory component.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid session name %q: must match %s", name, namePattern)
	}
	return nil
}

// ResolveValid resolves the session name and validates the result.
func ResolveValid(flagOverride string) (string, error) {
	name := Resolve(flagOverride)
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}
