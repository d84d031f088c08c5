package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimcow/scimcow/pkg/scim"
)

// seedAlphabet provisions n mailboxes a@example.com, b@example.com, ...
func seedAlphabet(ts *testServer, n int) []string {
	addresses := make([]string, 0, n)
	for i := 0; i < n; i++ {
		address := fmt.Sprintf("%c@example.com", 'a'+i)
		ts.fake.seed(address, "User "+address, true)
		addresses = append(addresses, address)
	}
	return addresses
}

func listUsersQuery(t *testing.T, ts *testServer, query string) scim.ListResponse {
	t.Helper()
	target := "/Users"
	if query != "" {
		target += "?" + query
	}
	rec := ts.request("GET", target, testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	return decodeList(t, rec)
}

func TestListUsersReturnsAllMailboxes(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	addresses := seedAlphabet(ts, 3)

	list := listUsersQuery(t, ts, "")
	assert.Equal(t, 3, list.TotalResults)
	assert.Equal(t, 3, list.ItemsPerPage)
	assert.Equal(t, 1, list.StartIndex)
	assert.Equal(t, addresses, userNames(t, list))
}

func TestListUsersPagination(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	seedAlphabet(ts, 5)

	tests := []struct {
		name      string
		query     string
		wantNames []string
		wantStart int
	}{
		{"first page", "startIndex=1&count=2", []string{"a@example.com", "b@example.com"}, 1},
		{"middle page", "startIndex=3&count=2", []string{"c@example.com", "d@example.com"}, 3},
		{"last partial page", "startIndex=5&count=2", []string{"e@example.com"}, 5},
		{"past the end", "startIndex=6&count=2", []string{}, 6},
		{"legacy index alias", "index=2&count=2", []string{"b@example.com", "c@example.com"}, 2},
		{"zero count", "count=0", []string{}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			list := listUsersQuery(t, ts, tc.query)
			assert.Equal(t, 5, list.TotalResults)
			assert.Equal(t, tc.wantStart, list.StartIndex)
			assert.Equal(t, tc.wantNames, userNames(t, list))
		})
	}
}

func TestListUsersCountCappedAtMaxResults(t *testing.T) {
	ts := newTestServerWithConfig(t, defaultOpts(), 2)
	seedAlphabet(ts, 5)

	list := listUsersQuery(t, ts, "count=100")
	assert.Equal(t, 5, list.TotalResults)
	assert.Equal(t, 2, list.ItemsPerPage)
}

func TestListUsersMalformedPagination(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	for _, query := range []string{"startIndex=abc", "count=abc", "index=abc"} {
		t.Run(query, func(t *testing.T) {
			rec := ts.request("GET", "/Users?"+query, testToken, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			scimErr := decodeSCIMError(t, rec)
			assert.Equal(t, scim.TypeInvalidSyntax, scimErr.ScimType)
			assert.Equal(t, "malformed pagination parameter", scimErr.Detail)
		})
	}
}

func TestListUsersFilter(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	seedAlphabet(ts, 3)

	t.Run("match", func(t *testing.T) {
		query := url.Values{"filter": {`userName eq "b@example.com"`}}
		list := listUsersQuery(t, ts, query.Encode())
		assert.Equal(t, 1, list.TotalResults)
		assert.Equal(t, []string{"b@example.com"}, userNames(t, list))
	})

	t.Run("case insensitive match", func(t *testing.T) {
		query := url.Values{"filter": {`userName eq "B@EXAMPLE.COM"`}}
		list := listUsersQuery(t, ts, query.Encode())
		assert.Equal(t, 1, list.TotalResults)
	})

	t.Run("no match", func(t *testing.T) {
		query := url.Values{"filter": {`userName eq "ghost@example.com"`}}
		list := listUsersQuery(t, ts, query.Encode())
		assert.Equal(t, 0, list.TotalResults)
		assert.Empty(t, list.Resources)
	})
}

func TestListUsersUnsupportedFilter(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	tests := []string{
		`userName co "partial"`,
		`displayName eq "Jane"`,
		`userName eq "a" and userName eq "b"`,
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			query := url.Values{"filter": {expr}}
			rec := ts.request("GET", "/Users?"+query.Encode(), testToken, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			scimErr := decodeSCIMError(t, rec)
			assert.Equal(t, scim.TypeInvalidFilter, scimErr.ScimType)
		})
	}
}

func TestListUsersUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	ts.fake.setFail(true)

	rec := ts.request("GET", "/Users", testToken, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	scimErr := decodeSCIMError(t, rec)
	assert.Equal(t, scim.TypeServerError, scimErr.ScimType)
	assert.Equal(t, "upstream mailcow call failed", scimErr.Detail)
}

func TestGetUser(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	ts.fake.seed("jane@example.com", "Jane Doe", true)

	rec := ts.request("GET", "/Users/jane@example.com", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user := decodeUser(t, rec)
	assert.Equal(t, "jane@example.com", user.ID)
	assert.Equal(t, "jane@example.com", user.UserName)
	assert.Equal(t, "Jane Doe", user.DisplayName)
	require.NotNil(t, user.Active)
	assert.True(t, *user.Active)
	require.Len(t, user.Emails, 1)
	assert.Equal(t, "jane@example.com", user.Emails[0].Value)
	require.NotNil(t, user.Meta)
	assert.Equal(t, "User", user.Meta.ResourceType)
	assert.Equal(t, "/Users/jane@example.com", user.Meta.Location)
}

func TestGetUserInactiveMailbox(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	ts.fake.seed("jane@example.com", "Jane Doe", false)

	rec := ts.request("GET", "/Users/jane@example.com", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user := decodeUser(t, rec)
	require.NotNil(t, user.Active)
	assert.False(t, *user.Active)
}

func TestGetUserNotFound(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	rec := ts.request("GET", "/Users/ghost@example.com", testToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	scimErr := decodeSCIMError(t, rec)
	assert.Equal(t, "404", scimErr.Status)
	assert.Equal(t, scim.TypeNotFound, scimErr.ScimType)
}

func TestCreateUser(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	rec := ts.request("POST", "/Users", testToken, userPayload("jane@example.com", true, "Jane Doe"))
	require.Equal(t, http.StatusCreated, rec.Code)

	user := decodeUser(t, rec)
	assert.Equal(t, "jane@example.com", user.ID)
	assert.Equal(t, "jane@example.com", user.UserName)

	box, ok := ts.fake.box("jane@example.com")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", box.Name)
	assert.True(t, box.Active)

	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.UsersCreated))
}

func TestCreateUserInactive(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	rec := ts.request("POST", "/Users", testToken, userPayload("jane@example.com", false, "Jane Doe"))
	require.Equal(t, http.StatusCreated, rec.Code)

	box, ok := ts.fake.box("jane@example.com")
	require.True(t, ok)
	assert.False(t, box.Active)
}

func TestCreateUserDuplicate(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	ts.fake.seed("jane@example.com", "Jane Doe", true)

	rec := ts.request("POST", "/Users", testToken, userPayload("jane@example.com", true, "Jane Doe"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	scimErr := decodeSCIMError(t, rec)
	assert.Equal(t, "409", scimErr.Status)
	assert.Equal(t, scim.TypeUniqueness, scimErr.ScimType)

	assert.Equal(t, float64(0), testutil.ToFloat64(ts.metrics.UsersCreated))
}

func TestCreateUserMissingEmails(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	payload := userPayload("jane@example.com", true, "Jane Doe")
	delete(payload, "emails")

	rec := ts.request("POST", "/Users", testToken, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	scimErr := decodeSCIMError(t, rec)
	assert.Equal(t, scim.TypeInvalidSyntax, scimErr.ScimType)
	assert.Equal(t, "missing required attribute: emails", scimErr.Detail)
}

func TestCreateUserMissingActive(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	payload := userPayload("jane@example.com", true, "Jane Doe")
	delete(payload, "active")

	rec := ts.request("POST", "/Users", testToken, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	scimErr := decodeSCIMError(t, rec)
	assert.Contains(t, scimErr.Detail, "active")
}

func TestCreateUserInvalidAddress(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	rec := ts.request("POST", "/Users", testToken, userPayload("not-an-address", true, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	scimErr := decodeSCIMError(t, rec)
	assert.Equal(t, scim.TypeInvalidSyntax, scimErr.ScimType)
	assert.Contains(t, scimErr.Detail, "invalid email address")
}

func TestCreateUserMalformedBody(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	rec := ts.requestRaw("POST", "/Users", testToken, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	scimErr := decodeSCIMError(t, rec)
	assert.Equal(t, "malformed user payload", scimErr.Detail)
}

func TestCreateUserRejectsWrongContentType(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	req := httptest.NewRequest("POST", "/Users", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "text/plain")

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, ts.fake.callCount())
}

func TestReplaceUser(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	ts.fake.seed("jane@example.com", "Jane Doe", true)

	rec := ts.request("PUT", "/Users/jane@example.com", testToken, userPayload("jane@example.com", false, "Jane Q. Doe"))
	require.Equal(t, http.StatusOK, rec.Code)

	user := decodeUser(t, rec)
	assert.Equal(t, "jane@example.com", user.ID)

	box, ok := ts.fake.box("jane@example.com")
	require.True(t, ok)
	assert.False(t, box.Active)
	assert.Equal(t, "Jane Q. Doe", box.Name)

	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.UsersUpdated))
}

func TestReplaceUserRenames(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	ts.fake.seed("old@example.com", "Jane Doe", true)

	rec := ts.request("PUT", "/Users/old@example.com", testToken, userPayload("new@example.com", true, "Jane Doe"))
	require.Equal(t, http.StatusOK, rec.Code)

	user := decodeUser(t, rec)
	assert.Equal(t, "new@example.com", user.ID)
	assert.Equal(t, "new@example.com", user.UserName)

	_, oldExists := ts.fake.box("old@example.com")
	assert.False(t, oldExists, "old address should be gone")
	_, newExists := ts.fake.box("new@example.com")
	assert.True(t, newExists, "mailbox should live at the new address")

	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.UsersUpdated))
	assert.Equal(t, float64(0), testutil.ToFloat64(ts.metrics.UsersCreated))
}

func TestReplaceUserUpsertDisabled(t *testing.T) {
	opts := defaultOpts()
	opts.UpsertOnUpdate = false
	ts := newTestServer(t, opts)

	rec := ts.request("PUT", "/Users/ghost@example.com", testToken, userPayload("ghost@example.com", true, ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	scimErr := decodeSCIMError(t, rec)
	assert.Equal(t, scim.TypeNotFound, scimErr.ScimType)
}

func TestDeleteUserDeactivatesByDefault(t *testing.T) {
	ts := newTestServer(t, defaultOpts())
	ts.fake.seed("jane@example.com", "Jane Doe", true)

	rec := ts.request("DELETE", "/Users/jane@example.com", testToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The mailbox survives, deactivated.
	box, ok := ts.fake.box("jane@example.com")
	require.True(t, ok)
	assert.False(t, box.Active)

	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.UsersDeleted))
}

func TestDeleteUserRemovesWhenConfigured(t *testing.T) {
	opts := defaultOpts()
	opts.DeleteMailbox = true
	ts := newTestServer(t, opts)
	ts.fake.seed("jane@example.com", "Jane Doe", true)

	rec := ts.request("DELETE", "/Users/jane@example.com", testToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, ok := ts.fake.box("jane@example.com")
	assert.False(t, ok, "mailbox should be gone")

	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.UsersDeleted))
}
