package scim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Schema URNs used by the resources this bridge serves.
const (
	SchemaUser                  = "urn:ietf:params:scim:schemas:core:2.0:User"
	SchemaGroup                 = "urn:ietf:params:scim:schemas:core:2.0:Group"
	SchemaListResponse          = "urn:ietf:params:scim:api:messages:2.0:ListResponse"
	SchemaError                 = "urn:ietf:params:scim:api:messages:2.0:Error"
	SchemaServiceProviderConfig = "urn:ietf:params:scim:schemas:core:2.0:ServiceProviderConfig"
)

// scimType values for error responses (RFC 7644 section 3.12).
const (
	TypeUniqueness    = "uniqueness"
	TypeInvalidSyntax = "invalidSyntax"
	TypeInvalidFilter = "invalidFilter"
	TypeNotFound      = "notFound"
	TypeMutability    = "mutability"
	TypeServerError   = "serverError"
)

// ErrMissingEmails reports a user payload without a usable email address.
// The email list names the mailbox, so nothing can be provisioned without it.
var ErrMissingEmails = errors.New("missing required attribute: emails")

var validate = validator.New()

// Email is a single entry of a user's email list
type Email struct {
	Value   string `json:"value" validate:"required"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// Name holds the components of a user's name
type Name struct {
	Formatted  string `json:"formatted,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

// Meta carries SCIM resource metadata
type Meta struct {
	ResourceType string     `json:"resourceType,omitempty"`
	Created      *time.Time `json:"created,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	Location     string     `json:"location,omitempty"`
}

// User is a SCIM 2.0 User resource. The resource id equals the mailbox
// address, so a user can always be resolved against the admin API without
// local state.
type User struct {
	Schemas     []string `json:"schemas" validate:"required,min=1"`
	ID          string   `json:"id,omitempty"`
	ExternalID  string   `json:"externalId,omitempty"`
	Active      *bool    `json:"active" validate:"required"`
	UserName    string   `json:"userName" validate:"required"`
	DisplayName string   `json:"displayName,omitempty"`
	Name        *Name    `json:"name,omitempty"`
	Emails      []Email  `json:"emails" validate:"required,min=1,dive"`
	Meta        *Meta    `json:"meta,omitempty"`
}

// Validate checks that an inbound user payload carries the attributes the
// bridge needs. The returned error names the first missing attribute.
func (u *User) Validate() error {
	if err := validate.Struct(u); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()
			switch field {
			case "Emails":
				return ErrMissingEmails
			default:
				return fmt.Errorf("missing required attribute: %s", lowerFirst(field))
			}
		}
		return fmt.Errorf("invalid user payload: %w", err)
	}
	return nil
}

// PrimaryEmail returns the address that names the user's mailbox: the first
// email marked primary, or the first entry when none is marked.
func (u *User) PrimaryEmail() string {
	if len(u.Emails) == 0 {
		return ""
	}
	for _, mail := range u.Emails {
		if mail.Primary {
			return mail.Value
		}
	}
	return u.Emails[0].Value
}

// IsActive reports the active flag, defaulting to true when the attribute
// was present but explicitly null is not possible after Validate.
func (u *User) IsActive() bool {
	if u.Active == nil {
		return true
	}
	return *u.Active
}

// EffectiveDisplayName returns displayName, falling back to the formatted
// name or the given/family pair when displayName is absent.
func (u *User) EffectiveDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Name != nil {
		if u.Name.Formatted != "" {
			return u.Name.Formatted
		}
		if u.Name.GivenName != "" && u.Name.FamilyName != "" {
			return u.Name.GivenName + " " + u.Name.FamilyName
		}
	}
	return u.UserName
}

// GroupMember is a member entry of a Group resource
type GroupMember struct {
	Value   string `json:"value"`
	Ref     string `json:"$ref,omitempty"`
	Display string `json:"display,omitempty"`
}

// Group is a SCIM 2.0 Group resource. Groups have no mailbox counterpart;
// the bridge serves them as placeholders so providers that sync groups do
// not abort the whole sync.
type Group struct {
	Schemas     []string      `json:"schemas"`
	ID          string        `json:"id,omitempty"`
	ExternalID  string        `json:"externalId,omitempty"`
	DisplayName string        `json:"displayName"`
	Members     []GroupMember `json:"members"`
}

// NewPlaceholderGroup builds the synthetic group returned for group reads.
func NewPlaceholderGroup(id string) Group {
	return Group{
		Schemas:     []string{SchemaGroup},
		ID:          id,
		DisplayName: id,
		Members:     []GroupMember{},
	}
}

// ListResponse is the SCIM list envelope. Resources keeps its uppercase
// JSON name per RFC 7644.
type ListResponse struct {
	Schemas      []string      `json:"schemas"`
	TotalResults int           `json:"totalResults"`
	ItemsPerPage int           `json:"itemsPerPage"`
	StartIndex   int           `json:"startIndex"`
	Resources    []interface{} `json:"Resources"`
}

// NewListResponse builds a list envelope for a page of resources.
func NewListResponse(startIndex, totalResults int, resources []interface{}) ListResponse {
	if resources == nil {
		resources = []interface{}{}
	}
	return ListResponse{
		Schemas:      []string{SchemaListResponse},
		TotalResults: totalResults,
		ItemsPerPage: len(resources),
		StartIndex:   startIndex,
		Resources:    resources,
	}
}

// Error is the SCIM error body. Status is the HTTP status code rendered as
// a string, as the message schema requires.
type Error struct {
	Schemas  []string `json:"schemas"`
	Status   string   `json:"status"`
	ScimType string   `json:"scimType,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// NewError builds an error body for the given HTTP status.
func NewError(status int, scimType, detail string) Error {
	return Error{
		Schemas:  []string{SchemaError},
		Status:   strconv.Itoa(status),
		ScimType: scimType,
		Detail:   detail,
	}
}

// Supported is a single capability entry of the service provider config
type Supported struct {
	Supported bool `json:"supported"`
}

// FilterCapability describes filter support including the page cap
type FilterCapability struct {
	Supported  bool `json:"supported"`
	MaxResults int  `json:"maxResults,omitempty"`
}

// AuthenticationScheme describes one way to authenticate against the surface
type AuthenticationScheme struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary,omitempty"`
}

// ServiceProviderConfig is the static capability document served at
// /ServiceProviderConfig.
type ServiceProviderConfig struct {
	Schemas               []string               `json:"schemas"`
	ID                    string                 `json:"id,omitempty"`
	DocumentationURI      string                 `json:"documentationUri,omitempty"`
	Patch                 Supported              `json:"patch"`
	Bulk                  Supported              `json:"bulk"`
	Filter                FilterCapability       `json:"filter"`
	ChangePassword        Supported              `json:"changePassword"`
	Sort                  Supported              `json:"sort"`
	ETag                  Supported              `json:"etag"`
	AuthenticationSchemes []AuthenticationScheme `json:"authenticationSchemes,omitempty"`
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
