package httphandler

import (
	"net/http"

	// Packages
	humanize "github.com/dustin/go-humanize"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	uploader "github.com/mutablelogic/go-upload/pkg/uploader"
	zerolog "github.com/rs/zerolog"
)

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /upload
// POST processes a multipart/form-data body and returns the form, with
// text fields and the metadata of each stored file.
func UploadHandler(mw *uploader.Middleware, log zerolog.Logger) (string, http.HandlerFunc, *openapi.PathItem) {
	return "/upload", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				_ = upload(w, r, mw, log)
			default:
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			}
		}, types.Ptr(openapi.PathItem{
			Post: &openapi.Operation{
				Description: "Upload files and fields using multipart/form-data (strategy: " + mw.Strategy().String() + ")",
			},
		})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func upload(w http.ResponseWriter, r *http.Request, mw *uploader.Middleware, log zerolog.Logger) error {
	log = log.With().Str("remote", r.RemoteAddr).Logger()

	// Report progress on large bodies
	if r.Body != nil {
		r.Body = newProgressReader(r.Body, r.ContentLength, func(read, total int64) {
			event := log.Debug().Str("read", humanize.Bytes(uint64(read)))
			if total > 0 {
				event = event.Str("total", humanize.Bytes(uint64(total)))
			}
			event.Msg("upload progress")
		})
	}

	form, err := mw.Process(r)
	if err != nil {
		log.Info().Err(err).Msg("upload failed")
		if errs := schema.StorageErrors(err); len(errs) > 0 {
			return httpresponse.Error(w, uploader.HTTPError(err), storageErrorDetail(errs))
		}
		return httpresponse.Error(w, uploader.HTTPError(err))
	}

	files := form.All()
	log.Info().Int("files", len(files)).Msg("upload complete")
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), form)
}

// storageErrorDetail lists the files which could not be removed, by field
func storageErrorDetail(errs []*schema.StorageError) map[string][]string {
	detail := make(map[string][]string, len(errs))
	for _, err := range errs {
		detail[err.Field] = append(detail[err.Field], err.Err.Error())
	}
	return detail
}
