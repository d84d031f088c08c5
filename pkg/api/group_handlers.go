package api

import (
	"net/http"

	"github.com/scimcow/scimcow/pkg/httputil"
	"github.com/scimcow/scimcow/pkg/scim"
)

// Groups have no mailcow counterpart; the endpoints are placeholders so
// providers that sync groups alongside users do not abort the whole job.
// Nothing here touches the admin API.

// listGroups handles GET /Groups
func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	startIndex, _, err := s.parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, "malformed pagination parameter")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, scim.NewListResponse(startIndex, 0, nil))
}

// getGroup handles GET /Groups/{id}
func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathString(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, scim.NewPlaceholderGroup(id))
}

// createGroup handles POST /Groups by echoing the payload back
func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var group scim.Group
	if err := httputil.ParseJSON(r, &group); err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, "malformed group payload")
		return
	}
	normalizeGroup(&group)

	httputil.WriteJSON(w, http.StatusCreated, group)
}

// replaceGroup handles PUT /Groups/{id} by echoing the payload back
func (s *Server) replaceGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathString(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, err.Error())
		return
	}

	var group scim.Group
	if err := httputil.ParseJSON(r, &group); err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, "malformed group payload")
		return
	}
	normalizeGroup(&group)
	group.ID = id

	httputil.WriteJSON(w, http.StatusOK, group)
}

// deleteGroup handles DELETE /Groups/{id}
func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	httputil.WriteNoContent(w)
}

// normalizeGroup fills the fields a SCIM response must carry even when the
// client omitted them.
func normalizeGroup(group *scim.Group) {
	if len(group.Schemas) == 0 {
		group.Schemas = []string{scim.SchemaGroup}
	}
	if group.Members == nil {
		group.Members = []scim.GroupMember{}
	}
}
