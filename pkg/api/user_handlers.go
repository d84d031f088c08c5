package api

import (
	"net/http"

	"github.com/scimcow/scimcow/pkg/httputil"
	"github.com/scimcow/scimcow/pkg/scim"
)

// parsePagination extracts the 1-based startIndex and page size. The legacy
// `index` alias is honored when `startIndex` is absent, for providers that
// predate the RFC 7644 parameter names.
func (s *Server) parsePagination(r *http.Request) (startIndex, count int, err error) {
	startIndex, err = httputil.ParseQueryInt(r, "startIndex", 0)
	if err != nil {
		return 0, 0, err
	}
	if startIndex == 0 {
		startIndex, err = httputil.ParseQueryInt(r, "index", 1)
		if err != nil {
			return 0, 0, err
		}
	}
	if startIndex < 1 {
		startIndex = 1
	}

	count, err = httputil.ParseQueryInt(r, "count", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if count < 0 {
		count = 0
	}
	if count > s.maxResults {
		count = s.maxResults
	}

	return startIndex, count, nil
}

// listUsers handles GET /Users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	startIndex, count, err := s.parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, "malformed pagination parameter")
		return
	}

	filter, err := scim.ParseFilter(httputil.ParseQueryString(r, "filter", ""))
	if err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidFilter, err.Error())
		return
	}

	users, err := s.provisioner.List(r.Context())
	if err != nil {
		s.writeProvisionerError(w, err)
		return
	}

	matched := make([]scim.User, 0, len(users))
	for _, user := range users {
		if filter.Matches(user.UserName) {
			matched = append(matched, user)
		}
	}

	total := len(matched)
	offset := startIndex - 1
	if offset > total {
		offset = total
	}
	end := offset + count
	if end > total {
		end = total
	}

	resources := make([]interface{}, 0, end-offset)
	for _, user := range matched[offset:end] {
		resources = append(resources, user)
	}

	httputil.WriteJSON(w, http.StatusOK, scim.NewListResponse(startIndex, total, resources))
}

// getUser handles GET /Users/{id}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathString(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, err.Error())
		return
	}

	user, err := s.provisioner.Get(r.Context(), id)
	if err != nil {
		s.writeProvisionerError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// createUser handles POST /Users
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var user scim.User
	if err := httputil.ParseJSON(r, &user); err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, "malformed user payload")
		return
	}
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, err.Error())
		return
	}

	created, err := s.provisioner.Create(r.Context(), &user)
	if err != nil {
		s.writeProvisionerError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
}

// replaceUser handles PUT /Users/{id}
func (s *Server) replaceUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathString(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, err.Error())
		return
	}

	var user scim.User
	if err := httputil.ParseJSON(r, &user); err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, "malformed user payload")
		return
	}
	if err := user.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, err.Error())
		return
	}

	updated, created, err := s.provisioner.Replace(r.Context(), id, &user)
	if err != nil {
		s.writeProvisionerError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, updated)
}

// deleteUser handles DELETE /Users/{id}
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathString(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, err.Error())
		return
	}

	if err := s.provisioner.Delete(r.Context(), id); err != nil {
		s.writeProvisionerError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}
