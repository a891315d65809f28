package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	types "github.com/mutablelogic/go-server/pkg/types"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadOpt is a functional option for Upload.
type UploadOpt func(*uploadOpts) error

// ProgressFunc is called as file content is sent. index is the 0-based
// file position and count the number of files in the request.
type ProgressFunc func(index, count int, path string, written, total int64)

type uploadOpts struct {
	path     string
	field    string
	values   [][2]string
	filter   func(string, fs.DirEntry) bool
	progress ProgressFunc
}

// walkEntry holds the path of a discovered file (relative to the fs.FS root)
// and its fs.FileInfo captured during the walk.
type walkEntry struct {
	path string
	info fs.FileInfo
}

// uploadPayload implements client.Payload for a streamed multipart body
type uploadPayload struct {
	*io.PipeReader
	contentType string
}

var _ client.Payload = (*uploadPayload)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	defaultPath  = "upload"
	defaultField = "file"
)

// wellKnownMIME maps file extensions that Go's mime package may not know about
// to their canonical MIME type.
var wellKnownMIME = map[string]string{
	".go":   "text/x-go",
	".md":   "text/markdown",
	".sh":   "text/x-shellscript",
	".py":   "text/x-python",
	".ts":   "text/typescript",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".toml": "application/toml",
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

var errUploadDone = errors.New("upload request complete")

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithPath sets the path of the upload handler, relative to the client
// endpoint. The default is "upload".
func WithPath(path string) UploadOpt {
	return func(o *uploadOpts) error {
		o.path = path
		return nil
	}
}

// WithField sets the form field name for files. The default is "file".
func WithField(name string) UploadOpt {
	return func(o *uploadOpts) error {
		if name == "" {
			return errors.New("field name is required")
		}
		o.field = name
		return nil
	}
}

// WithValue adds a text field, sent before any file
func WithValue(name, value string) UploadOpt {
	return func(o *uploadOpts) error {
		o.values = append(o.values, [2]string{name, value})
		return nil
	}
}

// WithFilter sets a function that controls which entries are walked. It is
// called with the path relative to the root, which is ".". Return false to
// skip the entry (and its subtree when it is a directory).
func WithFilter(fn func(string, fs.DirEntry) bool) UploadOpt {
	return func(o *uploadOpts) error {
		o.filter = fn
		return nil
	}
}

// WithProgress sets a callback for byte progress of each file
func WithProgress(fn ProgressFunc) UploadOpt {
	return func(o *uploadOpts) error {
		o.progress = fn
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// MIMEByExt returns the MIME type for a file extension, consulting wellKnownMIME
// first and then the system MIME database.
func MIMEByExt(ext string) string {
	if ct, ok := wellKnownMIME[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

// Upload walks fsys and sends every matching file as a part of a single
// streaming multipart POST. The filename of each part is its path
// relative to the root of fsys. Returns the form reported by the server.
func (c *Client) Upload(ctx context.Context, fsys fs.FS, opts ...UploadOpt) (*schema.Form, error) {
	o := &uploadOpts{path: defaultPath, field: defaultField}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	entries, err := walkFS(fsys, o.filter)
	if err != nil {
		return nil, err
	}

	// The body is written as the HTTP client sends it
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	payload := &uploadPayload{PipeReader: pr, contentType: writer.FormDataContentType()}
	written := make(chan error, 1)
	go func() {
		err := o.write(writer, fsys, entries)
		pw.CloseWithError(err)
		written <- err
	}()

	var form schema.Form
	err = c.DoWithContext(ctx, payload, &form, client.OptPath(o.path), client.OptNoTimeout())

	// Unblock the writer if the request ended before the body was sent
	pr.CloseWithError(errUploadDone)
	if werr := <-written; err == nil && werr != nil && !errors.Is(werr, errUploadDone) {
		err = werr
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

///////////////////////////////////////////////////////////////////////////////
// PAYLOAD

func (p *uploadPayload) Method() string {
	return http.MethodPost
}

func (p *uploadPayload) Accept() string {
	return types.ContentTypeJSON
}

func (p *uploadPayload) Type() string {
	return p.contentType
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// write sends the text fields and then each file, and closes the writer
func (o *uploadOpts) write(w *multipart.Writer, fsys fs.FS, entries []walkEntry) error {
	for _, value := range o.values {
		if err := w.WriteField(value[0], value[1]); err != nil {
			return err
		}
	}
	for i, e := range entries {
		if err := o.writeFile(w, fsys, i, len(entries), e); err != nil {
			return err
		}
	}
	return w.Close()
}

func (o *uploadOpts) writeFile(w *multipart.Writer, fsys fs.FS, index, count int, e walkEntry) error {
	f, err := fsys.Open(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	ct := MIMEByExt(path.Ext(e.path))
	if ct == "" {
		ct = types.ContentTypeBinary
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(o.field), quoteEscaper.Replace(e.path)))
	h.Set(types.ContentTypeHeader, ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}

	var r io.Reader = f
	if o.progress != nil {
		r = newProgressReader(f, e.info.Size(), func(written, total int64) {
			o.progress(index, count, e.path, written, total)
		})
	}
	_, err = io.Copy(part, r)
	return err
}

// walkFS walks the filesystem from its root (".") and returns one walkEntry
// per regular file. filter is called for every entry; return false to skip
// it (and its subtree when it is a directory). A nil filter includes
// everything.
func walkFS(fsys fs.FS, filter func(string, fs.DirEntry) bool) ([]walkEntry, error) {
	var entries []walkEntry
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if filter != nil && !filter(p, d) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, walkEntry{path: p, info: info})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

type progressReader struct {
	r        io.Reader
	total    int64
	written  int64
	lastEmit int64
	cb       func(written, total int64)
}

func newProgressReader(r io.Reader, total int64, cb func(written, total int64)) io.Reader {
	return &progressReader{r: r, total: total, cb: cb}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.written += int64(n)
		if r.written-r.lastEmit >= 64*1024 || (r.total > 0 && r.written >= r.total) {
			r.lastEmit = r.written
			r.cb(r.written, r.total)
		}
	}
	return n, err
}
