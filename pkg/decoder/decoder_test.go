package decoder_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	// Packages
	decoder "github.com/mutablelogic/go-upload/pkg/decoder"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
	goleak "go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

////////////////////////////////////////////////////////////////////////////////
// HELPERS

type part struct {
	field, filename, mimetype, value string
}

type result struct {
	fields   []decoder.FieldEvent
	files    []decoder.FileEvent
	data     map[string]string
	limits   []decoder.Limit
	err      error
	finished bool
}

func body(t *testing.T, parts ...part) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" && p.mimetype == "" {
			require.NoError(t, w.WriteField(p.field, p.value))
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		if p.mimetype != "" {
			h.Set("Content-Type", p.mimetype)
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.value))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

// run decodes the body, reading every file to EOF
func run(t *testing.T, contentType string, r io.Reader, limits schema.Limits, preservePath bool) *result {
	t.Helper()
	d, err := decoder.New(contentType, limits, preservePath)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch := make(chan decoder.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx, r, ch)
	}()

	res := &result{data: make(map[string]string)}
	for res.err == nil && !res.finished {
		select {
		case <-ctx.Done():
			t.Fatal("timeout")
		case event := <-ch:
			switch event := event.(type) {
			case decoder.FieldEvent:
				res.fields = append(res.fields, event)
			case decoder.FileEvent:
				data, err := io.ReadAll(event.Stream)
				if err != nil {
					res.err = err
				}
				res.files = append(res.files, event)
				res.data[event.Field] = string(data)
			case decoder.LimitEvent:
				res.limits = append(res.limits, event.Limit)
			case decoder.ErrorEvent:
				res.err = event.Err
			case decoder.FinishEvent:
				res.finished = true
			}
		}
	}
	cancel()
	<-done
	return res
}

////////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_Decoder_New(t *testing.T) {
	assert := assert.New(t)

	_, err := decoder.New("multipart/form-data", schema.Limits{}, false)
	assert.ErrorIs(err, decoder.ErrBoundaryNotFound)
	assert.Equal("multipart: boundary not found", err.Error())

	_, err = decoder.New("application/json", schema.Limits{}, false)
	assert.ErrorIs(err, decoder.ErrNotMultipart)

	_, err = decoder.New("multipart/form-data; boundary=abc", schema.Limits{}, false)
	assert.NoError(err)

	assert.True(decoder.IsMultipart("multipart/form-data; boundary=abc"))
	assert.True(decoder.IsMultipart("Multipart/Form-Data"))
	assert.True(decoder.IsMultipart("multipart/mixed; boundary=abc"))
	assert.False(decoder.IsMultipart("text/plain"))
	assert.False(decoder.IsMultipart(""))
}

func Test_Decoder_FieldsAndFiles(t *testing.T) {
	assert := assert.New(t)

	ct, buf := body(t,
		part{field: "name", value: "gopher"},
		part{field: "avatar", filename: "../dir/photo.png", mimetype: "image/png", value: "PNGDATA"},
		part{field: "doc", filename: `C:\docs\readme.txt`, mimetype: "text/plain; charset=utf-8", value: "hello"},
	)
	res := run(t, ct, buf, schema.Limits{}, false)
	assert.NoError(res.err)
	assert.True(res.finished)

	if assert.Len(res.fields, 1) {
		assert.Equal("name", res.fields[0].Name)
		assert.Equal("gopher", res.fields[0].Value)
		assert.False(res.fields[0].NameTruncated)
		assert.False(res.fields[0].ValueTruncated)
	}
	if assert.Len(res.files, 2) {
		assert.Equal("photo.png", res.files[0].Filename)
		assert.Equal("image/png", res.files[0].MimeType)
		assert.Equal("7bit", res.files[0].Encoding)
		assert.Equal("readme.txt", res.files[1].Filename)
		assert.Equal("text/plain", res.files[1].MimeType)
	}
	assert.Equal("PNGDATA", res.data["avatar"])
	assert.Equal("hello", res.data["doc"])
}

func Test_Decoder_PreservePath(t *testing.T) {
	assert := assert.New(t)

	ct, buf := body(t, part{field: "file", filename: "a/b/c.txt", mimetype: "text/plain", value: "x"})
	res := run(t, ct, buf, schema.Limits{}, true)
	assert.NoError(res.err)
	if assert.Len(res.files, 1) {
		assert.Equal("a/b/c.txt", res.files[0].Filename)
	}
}

func Test_Decoder_EmptyFilename(t *testing.T) {
	assert := assert.New(t)

	ct, buf := body(t, part{field: "file", filename: "", mimetype: "application/octet-stream", value: ""})
	res := run(t, ct, buf, schema.Limits{}, false)
	assert.NoError(res.err)
	if assert.Len(res.files, 1) {
		assert.Equal("", res.files[0].Filename)
		assert.Equal("file", res.files[0].Field)
	}
	assert.Empty(res.fields)
}

func Test_Decoder_FileSizeLimit(t *testing.T) {
	assert := assert.New(t)

	ct, buf := body(t,
		part{field: "small", filename: "s.txt", mimetype: "text/plain", value: "12345"},
		part{field: "large", filename: "l.txt", mimetype: "text/plain", value: "1234567890"},
	)
	d, err := decoder.New(ct, schema.Limits{FileSize: 5}, false)
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan decoder.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx, buf, ch)
	}()

	// Exactly at the limit is not truncated
	small := (<-ch).(decoder.FileEvent)
	limited := 0
	small.Stream.OnLimit(func() { limited++ })
	data, err := io.ReadAll(small.Stream)
	assert.NoError(err)
	assert.Equal("12345", string(data))
	assert.False(small.Stream.Truncated())
	assert.Equal(0, limited)

	large := (<-ch).(decoder.FileEvent)
	large.Stream.OnLimit(func() { limited++ })
	data, err = io.ReadAll(large.Stream)
	assert.NoError(err)
	assert.Equal("12345", string(data))
	assert.True(large.Stream.Truncated())
	assert.Equal(1, limited)

	_, ok := (<-ch).(decoder.FinishEvent)
	assert.True(ok)
	<-done
}

func Test_Decoder_FieldTruncation(t *testing.T) {
	assert := assert.New(t)

	ct, buf := body(t,
		part{field: "short", value: "abc"},
		part{field: strings.Repeat("n", 10), value: strings.Repeat("v", 10)},
	)
	res := run(t, ct, buf, schema.Limits{FieldNameSize: 5, FieldSize: 4}, false)
	assert.NoError(res.err)
	if assert.Len(res.fields, 2) {
		assert.Equal("short", res.fields[0].Name)
		assert.False(res.fields[0].NameTruncated)
		assert.False(res.fields[0].ValueTruncated)
		assert.Equal("nnnnn", res.fields[1].Name)
		assert.Equal("vvvv", res.fields[1].Value)
		assert.True(res.fields[1].NameTruncated)
		assert.True(res.fields[1].ValueTruncated)
	}
}

func Test_Decoder_DefaultFieldNameSize(t *testing.T) {
	assert := assert.New(t)

	ct, buf := body(t, part{field: strings.Repeat("n", 101), value: "v"})
	res := run(t, ct, buf, schema.Limits{}, false)
	assert.NoError(res.err)
	if assert.Len(res.fields, 1) {
		assert.True(res.fields[0].NameTruncated)
		assert.Len(res.fields[0].Name, 100)
	}
}

func Test_Decoder_CountLimits(t *testing.T) {
	tests := []struct {
		name   string
		limits schema.Limits
		expect decoder.Limit
	}{
		{"parts", schema.Limits{Parts: 2}, decoder.LimitParts},
		{"files", schema.Limits{Files: 1}, decoder.LimitFiles},
		{"fields", schema.Limits{Fields: 1}, decoder.LimitFields},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)
			ct, buf := body(t,
				part{field: "a", value: "1"},
				part{field: "b", value: "2"},
				part{field: "f1", filename: "1.txt", mimetype: "text/plain", value: "one"},
				part{field: "f2", filename: "2.txt", mimetype: "text/plain", value: "two"},
				part{field: "c", value: "3"},
			)
			res := run(t, ct, buf, test.limits, false)
			assert.NoError(res.err)
			assert.True(res.finished)
			assert.Equal([]decoder.Limit{test.expect}, res.limits)
		})
	}
}

func Test_Decoder_UnexpectedEnd(t *testing.T) {
	assert := assert.New(t)

	ct := "multipart/form-data; boundary=AaB03x"
	raw := "--AaB03x\r\n" +
		"Content-Disposition: form-data; name=\"file\"; filename=\"test.txt\"\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"test without end boundary"
	res := run(t, ct, strings.NewReader(raw), schema.Limits{}, false)
	assert.ErrorIs(res.err, decoder.ErrUnexpectedEnd)
	assert.Equal("unexpected end of multipart data", res.err.Error())
}

func Test_Decoder_EmptyBody(t *testing.T) {
	assert := assert.New(t)

	res := run(t, "multipart/form-data; boundary=AaB03x", strings.NewReader(""), schema.Limits{}, false)
	assert.ErrorIs(res.err, decoder.ErrUnexpectedEnd)
}

func Test_Decoder_Cancel(t *testing.T) {
	assert := assert.New(t)

	ct, buf := body(t,
		part{field: "file", filename: "a.txt", mimetype: "text/plain", value: "data"},
		part{field: "name", value: "value"},
	)
	d, err := decoder.New(ct, schema.Limits{}, false)
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan decoder.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx, buf, ch)
	}()

	// Decoder blocks on the unread stream until cancelled
	_, ok := (<-ch).(decoder.FileEvent)
	assert.True(ok)
	cancel()
	<-done
}

func Test_Stream_CloseAndDrain(t *testing.T) {
	assert := assert.New(t)

	ct, buf := body(t,
		part{field: "a", filename: "a.txt", mimetype: "text/plain", value: "aaaa"},
		part{field: "b", filename: "b.txt", mimetype: "text/plain", value: "bbbb"},
		part{field: "name", value: "value"},
	)
	d, err := decoder.New(ct, schema.Limits{}, false)
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan decoder.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx, buf, ch)
	}()

	a := (<-ch).(decoder.FileEvent)
	assert.NoError(a.Stream.Close())
	n, err := a.Stream.Read(make([]byte, 4))
	assert.Equal(0, n)
	assert.ErrorIs(err, io.EOF)

	b := (<-ch).(decoder.FileEvent)
	assert.NoError(b.Stream.Drain())
	assert.NoError(b.Stream.Err())

	field := (<-ch).(decoder.FieldEvent)
	assert.Equal("value", field.Value)

	_, ok := (<-ch).(decoder.FinishEvent)
	assert.True(ok)
	<-done
}
