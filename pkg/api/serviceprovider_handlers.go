package api

import (
	"net/http"

	"github.com/scimcow/scimcow/pkg/httputil"
	"github.com/scimcow/scimcow/pkg/scim"
)

// newServiceProviderConfig builds the static capability document. Filtering
// is the only optional SCIM feature the bridge implements.
func newServiceProviderConfig(maxResults int) scim.ServiceProviderConfig {
	return scim.ServiceProviderConfig{
		Schemas:          []string{scim.SchemaServiceProviderConfig},
		ID:               "scimcow",
		DocumentationURI: "https://github.com/scimcow/scimcow",
		Patch:            scim.Supported{Supported: false},
		Bulk:             scim.Supported{Supported: false},
		Filter:           scim.FilterCapability{Supported: true, MaxResults: maxResults},
		ChangePassword:   scim.Supported{Supported: false},
		Sort:             scim.Supported{Supported: false},
		ETag:             scim.Supported{Supported: false},
		AuthenticationSchemes: []scim.AuthenticationScheme{
			{
				Type:        "oauthbearertoken",
				Name:        "Bearer Token",
				Description: "Authorization header with the configured static bearer token",
				Primary:     true,
			},
		},
	}
}

// getServiceProviderConfig handles GET /ServiceProviderConfig
func (s *Server) getServiceProviderConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.spc)
}
