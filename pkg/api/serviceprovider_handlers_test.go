package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimcow/scimcow/pkg/scim"
)

func TestServiceProviderConfigDocument(t *testing.T) {
	ts := newTestServer(t, defaultOpts())

	rec := ts.request("GET", "/ServiceProviderConfig", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var spc scim.ServiceProviderConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spc))

	assert.Equal(t, []string{scim.SchemaServiceProviderConfig}, spc.Schemas)

	// Filtering is the only supported optional feature.
	assert.True(t, spc.Filter.Supported)
	assert.Equal(t, 500, spc.Filter.MaxResults)
	assert.False(t, spc.Patch.Supported)
	assert.False(t, spc.Bulk.Supported)
	assert.False(t, spc.ChangePassword.Supported)
	assert.False(t, spc.Sort.Supported)
	assert.False(t, spc.ETag.Supported)

	require.Len(t, spc.AuthenticationSchemes, 1)
	scheme := spc.AuthenticationSchemes[0]
	assert.Equal(t, "oauthbearertoken", scheme.Type)
	assert.True(t, scheme.Primary)
}

func TestServiceProviderConfigReflectsMaxResults(t *testing.T) {
	ts := newTestServerWithConfig(t, defaultOpts(), 42)

	rec := ts.request("GET", "/ServiceProviderConfig", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var spc scim.ServiceProviderConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spc))
	assert.Equal(t, 42, spc.Filter.MaxResults)
}
