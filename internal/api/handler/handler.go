// Package handler implements the HTTP handlers of the board API.
package handler

import (
	"net/http"

	"github.com/airyra/flowboard/internal/api/middleware"
	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/api/response"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/service"
)

type validator interface {
	Validate() []string
}

// decodeValid decodes and validates the JSON body into req. On failure the
// error response is written and false returned.
func decodeValid(w http.ResponseWriter, r *http.Request, req validator) bool {
	if err := request.DecodeJSON(r, req); err != nil {
		response.Error(w, domain.NewValidationError([]string{"Invalid JSON body"}))
		return false
	}
	if errors := req.Validate(); len(errors) > 0 {
		response.Error(w, domain.NewValidationError(errors))
		return false
	}
	return true
}

// projectConfig stamps the request's project on the service configuration.
func projectConfig(r *http.Request, cfg service.Config) service.Config {
	cfg.Project = middleware.GetProject(r.Context())
	return cfg
}
