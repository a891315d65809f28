package decoder

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Decoder turns a multipart/form-data body into a sequence of events
type Decoder struct {
	boundary     string
	limits       schema.Limits
	preservePath bool
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	mediaTypeMultipart = "multipart/"
	defaultEncoding    = schema.DefaultEncoding
	defaultMimeType    = schema.DefaultMimeType
)

var (
	ErrNotMultipart      = errors.New("multipart: unsupported content type")
	ErrBoundaryNotFound  = errors.New("multipart: boundary not found")
	ErrUnexpectedEnd     = errors.New("unexpected end of multipart data")
	ErrMalformedBoundary = errors.New("multipart: malformed part boundary")
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a decoder for a request with the given content type. It fails
// when the content type is not multipart or has no boundary.
func New(contentType string, limits schema.Limits, preservePath bool) (*Decoder, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, mediaTypeMultipart) {
		return nil, ErrNotMultipart
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, ErrBoundaryNotFound
	}
	return &Decoder{
		boundary:     boundary,
		limits:       limits,
		preservePath: preservePath,
	}, nil
}

// IsMultipart returns true if the content type is multipart/*
func IsMultipart(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.HasPrefix(mediaType, mediaTypeMultipart)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Run reads the body and sends events to ch. The final event is a
// FinishEvent or an ErrorEvent, unless the context is cancelled first, in
// which case Run returns without sending anything further. After sending a
// FileEvent, Run waits until the stream is consumed or closed. Run does not
// close the channel.
func (d *Decoder) Run(ctx context.Context, body io.Reader, ch chan<- Event) {
	reader := multipart.NewReader(body, d.boundary)
	hit := make(map[Limit]bool, 3)

	var parts, files, fields int64
	for {
		part, err := reader.NextRawPart()
		if err == io.EOF {
			send(ctx, ch, FinishEvent{})
			return
		} else if err != nil {
			send(ctx, ch, ErrorEvent{Err: partErr(err)})
			return
		}

		// Parts beyond an aggregate limit are skipped
		parts++
		if d.limits.Parts > 0 && parts > d.limits.Parts {
			if !d.limit(ctx, ch, hit, LimitParts) {
				return
			}
			continue
		}

		disposition, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
		if err != nil || disposition != "form-data" {
			continue
		}
		name := params["name"]
		filename, isFile := params["filename"]

		if isFile {
			files++
			if d.limits.Files > 0 && files > d.limits.Files {
				if !d.limit(ctx, ch, hit, LimitFiles) {
					return
				}
				continue
			}
			stream := newStream(part, d.limits.FileSize)
			if !send(ctx, ch, FileEvent{
				Field:    name,
				Stream:   stream,
				Filename: d.filename(filename),
				Encoding: encoding(part.Header.Get("Content-Transfer-Encoding")),
				MimeType: mimeType(part.Header.Get("Content-Type")),
			}) {
				return
			}

			// Wait for the consumer
			select {
			case <-stream.Done():
			case <-ctx.Done():
				return
			}
			continue
		}

		fields++
		if d.limits.Fields > 0 && fields > d.limits.Fields {
			if !d.limit(ctx, ch, hit, LimitFields) {
				return
			}
			continue
		}
		event, err := d.field(name, part)
		if err != nil {
			send(ctx, ch, ErrorEvent{Err: err})
			return
		}
		if !send(ctx, ch, event) {
			return
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// limit sends a limit event the first time the limit is hit
func (d *Decoder) limit(ctx context.Context, ch chan<- Event, hit map[Limit]bool, limit Limit) bool {
	if hit[limit] {
		return true
	}
	hit[limit] = true
	return send(ctx, ch, LimitEvent{Limit: limit})
}

// field reads a field value, truncating the name and value
func (d *Decoder) field(name string, r io.Reader) (FieldEvent, error) {
	var event FieldEvent

	// Read one byte past the limit to detect truncation
	max := d.limits.MaxFieldSize()
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return event, partErr(err)
	}
	if int64(len(data)) > max {
		data = data[:max]
		event.ValueTruncated = true
		if _, err := io.Copy(io.Discard, r); err != nil {
			return event, partErr(err)
		}
	}
	if max := d.limits.MaxFieldNameSize(); int64(len(name)) > max {
		name = name[:max]
		event.NameTruncated = true
	}

	event.Name = name
	event.Value = string(data)
	return event, nil
}

// filename strips any directory component unless paths are preserved
func (d *Decoder) filename(filename string) string {
	if d.preservePath {
		return filename
	}
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		return filename[i+1:]
	}
	return filename
}

func send(ctx context.Context, ch chan<- Event, event Event) bool {
	select {
	case ch <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func encoding(value string) string {
	if value = strings.ToLower(strings.TrimSpace(value)); value == "" {
		return defaultEncoding
	}
	return value
}

func mimeType(value string) string {
	if value == "" {
		return defaultMimeType
	}
	if mediaType, _, err := mime.ParseMediaType(value); err == nil {
		return mediaType
	}
	return strings.ToLower(strings.TrimSpace(value))
}

// partErr maps truncated body errors to ErrUnexpectedEnd
func partErr(err error) error {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return ErrUnexpectedEnd
	case strings.HasSuffix(err.Error(), io.EOF.Error()):
		return ErrUnexpectedEnd
	case strings.Contains(err.Error(), "multipart:"):
		return errors.Join(ErrMalformedBoundary, err)
	default:
		return err
	}
}
