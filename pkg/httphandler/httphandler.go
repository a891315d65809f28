package httphandler

import (
	"errors"
	"net/http"

	// Packages
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	uploader "github.com/mutablelogic/go-upload/pkg/uploader"
	zerolog "github.com/rs/zerolog"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Router is the interface required to register HTTP handlers.
type Router interface {
	RegisterFunc(path string, handler http.HandlerFunc, middleware bool, spec *openapi.PathItem) error
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHandlers registers the upload handlers on the provided router.
func RegisterHandlers(mw *uploader.Middleware, log zerolog.Logger, router Router) error {
	var result error
	register := func(path string, handler http.HandlerFunc, spec *openapi.PathItem) {
		result = errors.Join(result, router.RegisterFunc(path, handler, true, spec))
	}
	register(UploadHandler(mw, log))
	return result
}
