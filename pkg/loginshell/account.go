package loginshell

import (
	"errors"
	"fmt"

	"github.com/moby/sys/user"
)

// DefaultPasswdFile is where accounts are looked up once the real root is
// back in place.
const DefaultPasswdFile = "/etc/passwd"

// ErrNoSuchAccount is returned by LookupAccount when the passwd file has no
// entry for the requested name.
var ErrNoSuchAccount = errors.New("no such account")

// LookupAccount returns the passwd entry for name from the file at path.
func LookupAccount(path, name string) (user.User, error) {
	users, err := user.ParsePasswdFileFilter(path, func(u user.User) bool {
		return u.Name == name
	})
	if err != nil {
		return user.User{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(users) == 0 {
		return user.User{}, fmt.Errorf("%w %q in %s", ErrNoSuchAccount, name, path)
	}
	return users[0], nil
}
