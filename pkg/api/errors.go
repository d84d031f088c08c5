package api

import (
	"errors"
	"net/http"

	"github.com/scimcow/scimcow/pkg/httputil"
	"github.com/scimcow/scimcow/pkg/provisioner"
	"github.com/scimcow/scimcow/pkg/scim"
)

// writeError renders a SCIM error document
func writeError(w http.ResponseWriter, status int, scimType, detail string) {
	httputil.WriteJSON(w, status, scim.NewError(status, scimType, detail))
}

// writeProvisionerError maps provisioner failures onto the SCIM error
// surface in one place, so every handler reports the same way.
func (s *Server) writeProvisionerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provisioner.ErrUserNotFound):
		writeError(w, http.StatusNotFound, scim.TypeNotFound, err.Error())
	case errors.Is(err, provisioner.ErrUserExists):
		writeError(w, http.StatusConflict, scim.TypeUniqueness, err.Error())
	case errors.Is(err, provisioner.ErrDeleteNotAllowed):
		writeError(w, http.StatusForbidden, scim.TypeMutability, err.Error())
	case errors.Is(err, provisioner.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, scim.TypeInvalidSyntax, err.Error())
	default:
		// Anything else is an admin-API failure the client cannot fix.
		s.logger.WithError(err).Error("Upstream mailcow call failed")
		writeError(w, http.StatusBadGateway, scim.TypeServerError, "upstream mailcow call failed")
	}
}
