package uploader

import (
	"context"
	"net/http"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	appender "github.com/mutablelogic/go-upload/pkg/appender"
	decoder "github.com/mutablelogic/go-upload/pkg/decoder"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Middleware processes requests with a fixed file strategy and field
// declarations. It may be used for any number of concurrent requests.
type Middleware struct {
	*Uploader
	strategy schema.Strategy
	fields   []schema.Field
	anyField bool
}

type formKey struct{}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Strategy returns the file strategy of the middleware
func (m *Middleware) Strategy() schema.Strategy {
	return m.strategy
}

// Process reads the multipart body of the request. It returns when the
// body has been consumed and every storage operation has completed. On
// error, files which were already stored have been removed, and removal
// failures are reported with schema.StorageErrors.
func (m *Middleware) Process(r *http.Request) (*schema.Form, error) {
	dec, err := decoder.New(r.Header.Get("Content-Type"), m.limits, m.preservePath)
	if err != nil {
		requestsTotal.WithLabelValues(resultError).Inc()
		return nil, err
	}
	form := schema.NewForm(m.strategy)
	app, err := appender.New(m.strategy, form)
	if err != nil {
		requestsTotal.WithLabelValues(resultError).Inc()
		return nil, err
	}

	form, err = newOrchestrator(m, r, dec, app, form).run()
	if err != nil {
		requestsTotal.WithLabelValues(resultError).Inc()
		return nil, err
	}
	requestsTotal.WithLabelValues(resultSuccess).Inc()
	return form, nil
}

// Handler processes multipart requests before calling next, which can
// retrieve the result with FormFromContext. Other requests are passed to
// next unchanged. Errors are written by the error handler.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !decoder.IsMultipart(r.Header.Get("Content-Type")) {
			next.ServeHTTP(w, r)
			return
		}
		form, err := m.Process(r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithForm(r.Context(), form)))
	})
}

// DefaultErrorHandler writes the error with the status from HTTPError
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	_ = httpresponse.Error(w, HTTPError(err))
}

// WithForm returns a context carrying the form
func WithForm(ctx context.Context, form *schema.Form) context.Context {
	return context.WithValue(ctx, formKey{}, form)
}

// FormFromContext returns the form stored by Middleware.Handler, or nil
func FormFromContext(ctx context.Context) *schema.Form {
	if form, ok := ctx.Value(formKey{}).(*schema.Form); ok {
		return form
	}
	return nil
}
