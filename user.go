package d2lgrab

import (
	"context"
	"strings"
)

// User fetches the authenticated user's id and display name.
func (c *Client) User(ctx context.Context) (User, error) {
	data, err := c.polite.WhoAmI(ctx)
	if err != nil {
		return User{}, c.abortOnError(err)
	}
	name := strings.TrimSpace(data.FirstName + " " + data.LastName)
	return User{ID: data.Identifier, Name: name}, nil
}

// Organization fetches the institution the user belongs to.
func (c *Client) Organization(ctx context.Context) (Organization, error) {
	data, err := c.polite.OrganizationInfo(ctx)
	if err != nil {
		return Organization{}, c.abortOnError(err)
	}
	return Organization{ID: data.Identifier, Name: data.Name}, nil
}
