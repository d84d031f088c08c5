package mailcow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Defaults applied to every mailbox the bridge creates. Mailboxes never
// carry a local password: authentication happens at the identity provider,
// which is why authsource is pinned to the external mode.
const (
	DefaultAuthSource = "generic-oidc"
	DefaultQuota      = "3072"
	DefaultTag        = "scim"
)

// Flag is mailcow's boolean. The API renders it as 0/1 integers, "0"/"1"
// strings, or plain booleans depending on the endpoint.
type Flag bool

// UnmarshalJSON accepts the number, string, and bool renderings.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*f = false
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = s == "1" || s == "true"
	case string(data) == "true" || string(data) == "false":
		*f = string(data) == "true"
	default:
		n, err := strconv.Atoi(string(data))
		if err != nil {
			return fmt.Errorf("invalid flag value %q: %w", data, err)
		}
		*f = n != 0
	}
	return nil
}

// wireFlag renders a bool the way write endpoints expect it.
func wireFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Mailbox is the admin API's mailbox record, reduced to the attributes the
// bridge reads.
type Mailbox struct {
	Username   string   `json:"username"`
	Active     Flag     `json:"active"`
	Name       string   `json:"name"`
	Domain     string   `json:"domain"`
	LocalPart  string   `json:"local_part"`
	Quota      int64    `json:"quota"`
	AuthSource string   `json:"authsource"`
	Tags       []string `json:"tags"`
}

// Message is the msg field of an API result. Older mailcow versions send a
// bare string, newer ones an array whose second element names the mailbox
// the operation touched.
type Message []string

// UnmarshalJSON accepts both the string and array renderings.
func (m *Message) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Message{s}
		return nil
	}

	var parts []interface{}
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	out := make(Message, 0, len(parts))
	for _, p := range parts {
		out = append(out, fmt.Sprintf("%v", p))
	}
	*m = out
	return nil
}

// String joins the message parts for error reporting.
func (m Message) String() string {
	switch len(m) {
	case 0:
		return ""
	case 1:
		return m[0]
	default:
		out := m[0]
		for _, part := range m[1:] {
			out += " " + part
		}
		return out
	}
}

// Subject returns the mailbox address the operation reported, when the API
// included one (the second message element).
func (m Message) Subject() string {
	if len(m) > 1 {
		return m[1]
	}
	return ""
}

// APIResponse is one element of the result array a write endpoint returns
type APIResponse struct {
	Type string  `json:"type"`
	Msg  Message `json:"msg"`
}

// APIError describes an admin call the API rejected
type APIError struct {
	StatusCode int
	Type       string
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("mailcow API error (status %d, type %q): %s", e.StatusCode, e.Type, e.Msg)
	}
	return fmt.Sprintf("mailcow API error (status %d, type %q)", e.StatusCode, e.Type)
}

// CreateMailboxRequest carries the caller-controlled attributes of a new
// mailbox; everything else is filled with the bridge defaults.
type CreateMailboxRequest struct {
	LocalPart string
	Domain    string
	Name      string
	Active    bool
}

// EditAttrs selects the mailbox attributes an edit call should touch. Nil
// fields are left unchanged.
type EditAttrs struct {
	Active *bool
	Name   *string
	Tags   []string
}

// wireAttrs renders the edit payload's attr object.
func (a EditAttrs) wireAttrs() map[string]interface{} {
	attr := make(map[string]interface{})
	if a.Active != nil {
		attr["active"] = wireFlag(*a.Active)
	}
	if a.Name != nil {
		attr["name"] = *a.Name
	}
	if a.Tags != nil {
		attr["tags"] = a.Tags
	}
	return attr
}
