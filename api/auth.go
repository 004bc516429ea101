package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3filter"
)

const (
	adminTokenHeader = "X-Admin-Token"
	adminTokenScheme = "AdminToken"
)

var errInvalidAdminToken = errors.New("invalid admin token")

// authenticate is the security scheme check run by the request validator.
func (a *API) authenticate(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input.SecuritySchemeName != adminTokenScheme {
		return fmt.Errorf("unknown security scheme %q", input.SecuritySchemeName)
	}

	// an unset token locks the admin endpoints
	if a.cfg.AdminToken == "" {
		return errInvalidAdminToken
	}

	token := input.RequestValidationInput.Request.Header.Get(adminTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.cfg.AdminToken)) != 1 {
		return errInvalidAdminToken
	}

	return nil
}
