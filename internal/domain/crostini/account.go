package crostini

import (
	"fmt"
	"os/user"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/config"
)

// Account is the operator's own login, the one groups are restored to.
type Account struct {
	Name string
	Home string
}

// ResolveAccount finds the account that invoked the installer. Under sudo
// that is SUDO_USER, not root; USER is the fallback.
func ResolveAccount(getenv func(string) string, lookup func(string) (*user.User, error)) (Account, error) {
	name := getenv("SUDO_USER")
	if name == "" {
		name = getenv("USER")
	}
	if name == "" {
		return Account{}, config.NewUserError(config.ErrCodeUserLookup, "cannot determine the invoking user").
			WithSuggestion("Run the installer with sudo from your own account.")
	}

	u, err := lookup(name)
	if err != nil {
		return Account{}, config.NewUserError(config.ErrCodeUserLookup, fmt.Sprintf("cannot look up user %q", name)).
			WithUnderlying(err).
			WithSuggestion("Check that the account exists in /etc/passwd.")
	}
	return Account{Name: u.Username, Home: u.HomeDir}, nil
}
