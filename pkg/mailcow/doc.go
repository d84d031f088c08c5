// Package mailcow is a thin client for the mailcow admin API.
//
// # Overview
//
// The client wraps the handful of mailbox endpoints the bridge needs:
// create, edit, rename, delete, and lookup. Authentication uses the
// X-API-Key header; certificate verification can be disabled for
// installations with self-signed certificates.
//
// # Usage
//
//	client := mailcow.NewClient(mailcow.Config{
//		BaseURL: "https://mail.example.com/api/v1/",
//		APIKey:  key,
//	})
//
//	box, err := client.GetMailbox(ctx, "alice@example.com")
//	if errors.Is(err, mailcow.ErrNotFound) {
//		// mailbox does not exist
//	}
//
// # Response Handling
//
// Write endpoints answer with an array of result objects. A call counts as
// successful only when the HTTP status is 200 and the first result has type
// "success"; anything else surfaces as an *APIError.
//
// There is no retry or backoff. Failures propagate to the caller, which
// maps them onto upstream error responses.
package mailcow
