// Package validation checks operator and configuration input before it is
// passed to system commands or written into system files.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput         = errors.New("input cannot be empty")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrInvalidKeyID       = errors.New("invalid OpenPGP key id")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrInvalidHostname    = errors.New("invalid hostname")
	ErrInvalidUserName    = errors.New("invalid user name")
	ErrInvalidGroupName   = errors.New("invalid group name")
	ErrInvalidSuite       = errors.New("invalid apt suite")
	ErrCommandInjection   = errors.New("potential command injection detected")
)

var (
	// Debian policy: lowercase alphanumerics, plus, minus and dots, at least two characters.
	packageNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)

	// Short (16) or full (40) hex key ids, optional 0x prefix.
	keyIDRegex = regexp.MustCompile(`^(0x)?([0-9A-Fa-f]{16}|[0-9A-Fa-f]{40})$`)

	urlRegex = regexp.MustCompile(`^https?://[a-zA-Z0-9][a-zA-Z0-9._:/-]*$`)

	hostnameLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

	// shadow-utils NAME_REGEX default.
	accountNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]*\$?$`)

	suiteRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

	shellMetaChars = []string{";", "|", "&", "$(", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\", " "}
)

// ValidatePackageName validates a Debian package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256 characters)", ErrInvalidPackageName)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidateKeyID validates an OpenPGP key id or fingerprint.
func ValidateKeyID(id string) error {
	if id == "" {
		return ErrEmptyInput
	}
	if !keyIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %q must be 16 or 40 hex digits", ErrInvalidKeyID, id)
	}
	return nil
}

// NormalizeKeyID returns the upper-case 16 hex digit key id for a key id or
// fingerprint. The input must have passed ValidateKeyID.
func NormalizeKeyID(id string) string {
	id = strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X"))
	if len(id) > 16 {
		id = id[len(id)-16:]
	}
	return id
}

// ValidateURL validates an HTTP or HTTPS URL.
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return ErrEmptyInput
	}
	if len(urlStr) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidURL)
	}
	if !urlRegex.MatchString(urlStr) {
		return fmt.Errorf("%w: %q must be a valid HTTP/HTTPS URL", ErrInvalidURL, urlStr)
	}
	return nil
}

// ValidateHostname validates a static hostname per RFC 1123.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return ErrEmptyInput
	}
	if len(hostname) > 253 {
		return fmt.Errorf("%w: hostname too long", ErrInvalidHostname)
	}
	if containsShellMeta(hostname) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, hostname)
	}
	for _, label := range strings.Split(hostname, ".") {
		if !hostnameLabelRegex.MatchString(label) {
			return fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
		}
	}
	return nil
}

// ValidateUserName validates a local account name.
func ValidateUserName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 32 || !accountNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUserName, name)
	}
	return nil
}

// ValidateGroupName validates a local group name.
func ValidateGroupName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 32 || !accountNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidGroupName, name)
	}
	return nil
}

// ValidateSuite validates an apt suite, component or milestone token.
func ValidateSuite(suite string) error {
	if suite == "" {
		return ErrEmptyInput
	}
	if !suiteRegex.MatchString(suite) {
		return fmt.Errorf("%w: %q", ErrInvalidSuite, suite)
	}
	return nil
}

func containsShellMeta(s string) bool {
	for _, meta := range shellMetaChars {
		if strings.Contains(s, meta) {
			return true
		}
	}
	return false
}
