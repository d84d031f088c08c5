// Package scim implements the SCIM 2.0 resource model used on the wire.
//
// # Overview
//
// This package defines the User, Group, ListResponse, Error and
// ServiceProviderConfig shapes from RFC 7643/7644, payload validation for
// inbound resources, and parsing for the single supported filter expression.
//
// # Resources
//
// Decode and validate an inbound user:
//
//	var user scim.User
//	json.NewDecoder(r.Body).Decode(&user)
//	if err := user.Validate(); err != nil {
//		// err carries the attribute that failed
//	}
//
// The mailbox address for a user comes from its email list:
//
//	addr := user.PrimaryEmail() // first primary:true entry, else first entry
//
// # Errors
//
// SCIM error bodies carry the error schema URN, the status code as a string,
// and a scimType discriminator:
//
//	scim.NewError(http.StatusConflict, scim.TypeUniqueness, "user exists")
//
// # Filtering
//
// Only equality on userName is supported:
//
//	f, err := scim.ParseFilter(`userName eq "alice@example.com"`)
//
// Anything else returns ErrUnsupportedFilter.
//
// # Related Packages
//
//   - pkg/provisioner: Maps these resources onto mailboxes
//   - pkg/api: Serves them over HTTP
package scim
