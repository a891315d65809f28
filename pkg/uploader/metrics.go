package uploader

import (
	// Packages
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	prometheus "github.com/prometheus/client_golang/prometheus"
	promauto "github.com/prometheus/client_golang/prometheus/promauto"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	resultSuccess = "success"
	resultError   = "error"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: schema.SchemaName,
		Name:      "requests_total",
		Help:      "Multipart requests processed, by result",
	}, []string{"result"})

	filesStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: schema.SchemaName,
		Name:      "files_stored_total",
		Help:      "Files stored by requests which completed",
	})

	bytesStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: schema.SchemaName,
		Name:      "bytes_stored_total",
		Help:      "Bytes stored by requests which completed",
	})

	abortsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: schema.SchemaName,
		Name:      "aborts_total",
		Help:      "Requests aborted, by error code",
	}, []string{"code"})

	removalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: schema.SchemaName,
		Name:      "rollback_removals_total",
		Help:      "Files removed from storage during rollback, by result",
	}, []string{"result"})
)

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// errorCode returns the metric label for an abort error
func errorCode(err error) string {
	if uploadErr, ok := err.(*schema.Error); ok {
		return string(uploadErr.Code)
	}
	return resultError
}
