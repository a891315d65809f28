package uploader

import (
	"context"
	"io"
	"net/http"
	"sync"

	// Packages
	humanize "github.com/dustin/go-humanize"
	otel "github.com/mutablelogic/go-client/pkg/otel"
	upload "github.com/mutablelogic/go-upload"
	appender "github.com/mutablelogic/go-upload/pkg/appender"
	counter "github.com/mutablelogic/go-upload/pkg/counter"
	decoder "github.com/mutablelogic/go-upload/pkg/decoder"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	zerolog "github.com/rs/zerolog"
	errgroup "golang.org/x/sync/errgroup"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type state int

// orchestrator processes a single request. Its fields are owned by the
// goroutine in run; decoder, storage and rollback goroutines report back
// through the events and messages channels.
type orchestrator struct {
	*Middleware
	ctx      context.Context // passed to filter and storage
	cancel   context.CancelFunc
	body     io.Reader
	decoder  *decoder.Decoder
	appender *appender.Appender
	form     *schema.Form
	quota    *quota
	log      zerolog.Logger

	state     state
	err       error // first error, returned from run
	finished  bool  // decoder sent FinishEvent
	pending   counter.Counter
	writes    map[appender.Placeholder]*write
	persisted []*schema.File
	events    chan decoder.Event
	messages  chan message
}

// write is a storage write in progress
type write struct {
	field    string
	aborting bool // the file is rolled back whatever the write result
}

type message interface {
	message()
}

type writeDone struct {
	id   appender.Placeholder
	file *schema.File
	info *schema.FileInfo
	err  error
}

type streamLimit struct {
	id appender.Placeholder
}

type streamError struct {
	id  appender.Placeholder
	err error
}

type rollbackDone struct {
	errs []*schema.StorageError
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	stateActive state = iota
	stateAborting
	stateDone
)

// Maximum number of concurrent removals during rollback
const rollbackConcurrency = 8

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newOrchestrator(m *Middleware, r *http.Request, dec *decoder.Decoder, app *appender.Appender, form *schema.Form) *orchestrator {
	var body io.Reader = r.Body
	if r.Body == nil {
		body = http.NoBody
	}
	return &orchestrator{
		Middleware: m,
		ctx:        upload.WithRequest(r.Context(), r),
		body:       body,
		decoder:    dec,
		appender:   app,
		form:       form,
		quota:      newQuota(m.fields, m.anyField),
		log:        m.logger.With().Str("strategy", m.strategy.String()).Logger(),
		writes:     make(map[appender.Placeholder]*write),
		events:     make(chan decoder.Event),
		messages:   make(chan message),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// run processes the request until it is done, then waits for the decoder
// to exit and discards the rest of the body
func (o *orchestrator) run() (*schema.Form, error) {
	ctx, cancel := context.WithCancel(o.ctx)
	defer cancel()
	o.cancel = cancel

	decoded := make(chan struct{})
	go func() {
		defer close(decoded)
		o.decoder.Run(ctx, o.body, o.events)
	}()

	for o.state != stateDone {
		select {
		case event := <-o.events:
			o.handleEvent(event)
		case msg := <-o.messages:
			o.handleMessage(msg)
		}
	}

	cancel()
	<-decoded
	if _, err := io.Copy(io.Discard, o.body); err != nil {
		o.log.Debug().Err(err).Msg("discard request body")
	}

	if o.err != nil {
		return nil, o.err
	}

	// Rolled back files are not counted
	for _, file := range o.persisted {
		filesStored.Inc()
		bytesStored.Add(float64(file.Size))
	}
	return o.appender.Form(), nil
}

func (o *orchestrator) handleEvent(event decoder.Event) {
	switch event := event.(type) {
	case decoder.FieldEvent:
		o.onField(event)
	case decoder.FileEvent:
		o.onFile(event)
	case decoder.ErrorEvent:
		o.abort(event.Err)
	case decoder.LimitEvent:
		o.abort(limitError(event.Limit))
	case decoder.FinishEvent:
		o.finished = true
		o.complete()
	}
}

func (o *orchestrator) handleMessage(msg message) {
	switch msg := msg.(type) {
	case writeDone:
		o.onWriteDone(msg)
	case streamLimit:
		if w, exists := o.writes[msg.id]; exists {
			w.aborting = true
			o.abort(schema.NewError(schema.CodeLimitFileSize, w.field))
		}
	case streamError:
		if w, exists := o.writes[msg.id]; exists {
			w.aborting = true
			o.abort(msg.err)
		}
	case rollbackDone:
		o.err = schema.WithStorageErrors(o.err, msg.errs)
		o.state = stateDone
	}
}

func (o *orchestrator) onField(event decoder.FieldEvent) {
	if o.state != stateActive {
		return
	}
	switch {
	case event.NameTruncated:
		o.abort(schema.NewError(schema.CodeLimitFieldKey, ""))
	case event.ValueTruncated:
		o.abort(schema.NewError(schema.CodeLimitFieldValue, event.Name))
	case o.nameTooLong(event.Name):
		o.abort(schema.NewError(schema.CodeLimitFieldKey, ""))
	default:
		o.form.Body.Append(event.Name, event.Value)
	}
}

func (o *orchestrator) onFile(event decoder.FileEvent) {
	stream := event.Stream
	if o.state != stateActive {
		stream.Close()
		return
	}

	// A part without a filename carries no file
	if event.Filename == "" {
		o.discard(stream)
		return
	}
	if o.nameTooLong(event.Field) {
		stream.Close()
		o.abort(schema.NewError(schema.CodeLimitFieldKey, ""))
		return
	}
	if !o.quota.take(event.Field) {
		stream.Close()
		o.abort(schema.NewError(schema.CodeLimitUnexpectedFile, event.Field))
		return
	}

	file := &schema.File{
		FieldName:    event.Field,
		OriginalName: event.Filename,
		Encoding:     event.Encoding,
		MimeType:     event.MimeType,
	}
	id := o.appender.InsertPlaceholder(event.Field)
	include, err := o.filter(o.ctx, file)
	if err != nil {
		o.appender.RemovePlaceholder(id)
		stream.Close()
		o.abort(err)
		return
	} else if !include {
		o.appender.RemovePlaceholder(id)
		o.log.Debug().Str("field", file.FieldName).Str("filename", file.OriginalName).Msg("file excluded")
		o.discard(stream)
		return
	}

	// Dispatch the write
	o.pending.Increment()
	o.writes[id] = &write{field: event.Field}
	stream.OnLimit(func() {
		o.messages <- streamLimit{id: id}
	})
	stream.OnError(func(err error) {
		o.messages <- streamError{id: id, err: err}
	})
	file.Stream = stream
	go o.writeFile(id, file, stream)
}

func (o *orchestrator) onWriteDone(msg writeDone) {
	w := o.writes[msg.id]
	delete(o.writes, msg.id)

	switch {
	case w != nil && w.aborting:
		o.appender.RemovePlaceholder(msg.id)
		if msg.err == nil {
			o.persisted = append(o.persisted, msg.file.WithInfo(msg.info))
		}
		o.pending.Decrement()
	case msg.err != nil:
		o.appender.RemovePlaceholder(msg.id)
		o.pending.Decrement()
		o.abort(msg.err)
	default:
		record := msg.file.WithInfo(msg.info)
		o.appender.ReplacePlaceholder(msg.id, record)
		o.persisted = append(o.persisted, record)
		o.log.Debug().
			Str("field", record.FieldName).
			Str("filename", record.OriginalName).
			Str("size", humanize.Bytes(uint64(max(record.Size, 0)))).
			Msg("file stored")
		o.pending.Decrement()
		o.complete()
	}
}

// complete finishes the request when the body has been decoded and no
// writes are pending
func (o *orchestrator) complete() {
	if o.state == stateActive && o.finished && o.pending.IsZero() {
		o.state = stateDone
	}
}

// abort records the first error and stops the decoder. Files stored so far
// are removed once the pending writes have completed.
func (o *orchestrator) abort(err error) {
	if o.state != stateActive {
		return
	}
	o.state = stateAborting
	o.err = err
	o.cancel()

	abortsTotal.WithLabelValues(errorCode(err)).Inc()
	o.log.Debug().Err(err).Int("pending", o.pending.Value()).Msg("abort")
	o.pending.OnceZero(o.rollback)
}

func (o *orchestrator) rollback() {
	files := o.persisted
	if len(files) == 0 {
		o.state = stateDone
		return
	}
	go func() {
		o.messages <- rollbackDone{errs: o.removeFiles(files)}
	}()
}

// writeFile runs a storage write and reports the result
func (o *orchestrator) writeFile(id appender.Placeholder, file *schema.File, stream *decoder.Stream) {
	ctx, endFunc := otel.StartSpan(o.tracer, o.ctx, spanName("WriteFile"))
	info, err := o.storage.WriteFile(ctx, file)
	endFunc(err)

	// Release the decoder if the storage returned without reading to EOF
	stream.Close()

	o.messages <- writeDone{id: id, file: file, info: info, err: err}
}

// removeFiles removes files concurrently, collecting the failures
func (o *orchestrator) removeFiles(files []*schema.File) []*schema.StorageError {
	var mu sync.Mutex
	var result []*schema.StorageError

	ctx := context.WithoutCancel(o.ctx)
	g := new(errgroup.Group)
	g.SetLimit(rollbackConcurrency)
	for _, file := range files {
		g.Go(func() error {
			child, endFunc := otel.StartSpan(o.tracer, ctx, spanName("RemoveFile"))
			err := o.storage.RemoveFile(child, file)
			endFunc(err)
			if err == nil {
				removalsTotal.WithLabelValues(resultSuccess).Inc()
				return nil
			}
			removalsTotal.WithLabelValues(resultError).Inc()
			o.log.Warn().Err(err).Str("field", file.FieldName).Str("filename", file.OriginalName).Msg("remove file")

			mu.Lock()
			defer mu.Unlock()
			result = append(result, &schema.StorageError{Field: file.FieldName, File: file, Err: err})
			return nil
		})
	}

	// Removal failures are collected, not returned
	_ = g.Wait()

	return result
}

// discard reads the rest of a part which is not stored
func (o *orchestrator) discard(stream *decoder.Stream) {
	if err := stream.Drain(); err != nil {
		o.log.Debug().Err(err).Msg("discard part")
	}
}

func (o *orchestrator) nameTooLong(name string) bool {
	return o.limits.FieldNameSize > 0 && int64(len(name)) > o.limits.FieldNameSize
}

func limitError(limit decoder.Limit) error {
	switch limit {
	case decoder.LimitParts:
		return schema.NewError(schema.CodeLimitPartCount, "")
	case decoder.LimitFiles:
		return schema.NewError(schema.CodeLimitFileCount, "")
	default:
		return schema.NewError(schema.CodeLimitFieldCount, "")
	}
}

func spanName(op string) string {
	return schema.SchemaName + ".storage." + op
}

func (writeDone) message()    {}
func (streamLimit) message()  {}
func (streamError) message()  {}
func (rollbackDone) message() {}
