package provisioner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scimcow/scimcow/pkg/mailcow"
	"github.com/scimcow/scimcow/pkg/scim"
)

// ErrInvalidAddress marks an email address a mailbox cannot be derived from
var ErrInvalidAddress = errors.New("invalid email address")

// splitAddress splits a mailbox address into local part and domain.
func splitAddress(address string) (local, domain string, err error) {
	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return address[:at], address[at+1:], nil
}

// userFromMailbox maps a mailbox record to its SCIM rendering. The mailbox
// address serves as id, userName, and sole email.
func userFromMailbox(mbox *mailcow.Mailbox) scim.User {
	active := bool(mbox.Active)
	return scim.User{
		Schemas:     []string{scim.SchemaUser},
		ID:          mbox.Username,
		UserName:    mbox.Username,
		Active:      &active,
		DisplayName: mbox.Name,
		Emails: []scim.Email{
			{Value: mbox.Username, Type: "work", Primary: true},
		},
		Meta: &scim.Meta{
			ResourceType: "User",
			Location:     "/Users/" + mbox.Username,
		},
	}
}

// echoUser renders the caller's payload back with the authoritative id and
// metadata filled in, the way create and replace responses report state.
func echoUser(user *scim.User, id string) scim.User {
	out := *user
	out.ID = id
	out.UserName = id
	if len(out.Schemas) == 0 {
		out.Schemas = []string{scim.SchemaUser}
	}
	out.Meta = &scim.Meta{
		ResourceType: "User",
		Location:     "/Users/" + id,
	}
	return out
}
