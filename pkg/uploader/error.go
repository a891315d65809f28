package uploader

import (
	"errors"
	"net/http"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	decoder "github.com/mutablelogic/go-upload/pkg/decoder"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// HTTPError maps a processing error to an httpresponse error. Limit
// violations are 413, unexpected files and malformed bodies are 400 and a
// body which is not multipart is 415. Other errors are returned unchanged.
func HTTPError(err error) error {
	var uploadErr *schema.Error
	var rollbackErr *schema.RollbackError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &uploadErr):
		if uploadErr.Code == schema.CodeLimitUnexpectedFile {
			return httpresponse.ErrBadRequest.With(uploadErr.Error())
		}
		return httpresponse.Err(http.StatusRequestEntityTooLarge).With(uploadErr.Error())
	case errors.As(err, &rollbackErr):
		return HTTPError(rollbackErr.Err)
	case errors.Is(err, decoder.ErrNotMultipart):
		return httpresponse.Err(http.StatusUnsupportedMediaType).With(err.Error())
	case errors.Is(err, decoder.ErrBoundaryNotFound), errors.Is(err, decoder.ErrUnexpectedEnd), errors.Is(err, decoder.ErrMalformedBoundary):
		return httpresponse.ErrBadRequest.With(err.Error())
	default:
		return err
	}
}
