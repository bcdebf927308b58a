package app

import (
	"fmt"
	"io"
	"strings"
)

// UsersCommand manages users from the command line.
type UsersCommand struct {
	users *UserService
}

func NewUsersCommand(users *UserService) *UsersCommand {
	return &UsersCommand{users: users}
}

// List prints one user per line.
func (c *UsersCommand) List(out io.Writer) error {
	users := c.users.All()
	if len(users) == 0 {
		_, err := fmt.Fprintln(out, "no users")
		return err
	}
	for _, u := range users {
		if _, err := fmt.Fprintf(out, "%d\t%s\t%s\n", u.ID, u.Name, u.Email); err != nil {
			return err
		}
	}
	return nil
}

// Add creates a user and prints it as JSON.
func (c *UsersCommand) Add(name, email string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, fmt.Errorf("a name is required")
	}
	return c.users.Create(name, email), nil
}
