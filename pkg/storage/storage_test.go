package storage_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	storage "github.com/mutablelogic/go-upload/pkg/storage"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

////////////////////////////////////////////////////////////////////////////////
// HELPERS

type failingReader struct {
	data string
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func newFile(field, name string, r io.Reader) *schema.File {
	return &schema.File{
		FieldName:    field,
		OriginalName: name,
		Encoding:     "7bit",
		MimeType:     "text/plain",
		Stream:       r,
	}
}

////////////////////////////////////////////////////////////////////////////////
// MEMORY

func Test_Memory_WriteRemove(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mem := storage.NewMemory()

	file := newFile("doc", "a.txt", strings.NewReader("hello world"))
	info, err := mem.WriteFile(ctx, file)
	require.NoError(t, err)
	assert.Equal(int64(11), info.Size)
	assert.Equal([]byte("hello world"), info.Buffer)

	record := file.WithInfo(info)
	assert.Nil(record.Stream)
	assert.NoError(mem.RemoveFile(ctx, record))
	assert.Nil(record.Buffer)
}

func Test_Memory_StreamError(t *testing.T) {
	assert := assert.New(t)
	mem := storage.NewMemory()

	_, err := mem.WriteFile(context.Background(), newFile("doc", "a.txt", &failingReader{data: "abc", err: io.ErrUnexpectedEOF}))
	assert.ErrorIs(err, io.ErrUnexpectedEOF)
}

////////////////////////////////////////////////////////////////////////////////
// DISK

func Test_Disk_WriteRemove(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")

	disk, err := storage.NewDisk(storage.WithDestination(dir))
	require.NoError(t, err)
	assert.DirExists(dir)

	file := newFile("doc", "a.txt", strings.NewReader("disk content"))
	info, err := disk.WriteFile(ctx, file)
	require.NoError(t, err)
	assert.Equal(dir, info.Destination)
	assert.Len(info.Filename, 32)
	assert.Equal(filepath.Join(dir, info.Filename), info.Path)
	assert.Equal(int64(12), info.Size)

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal("disk content", string(data))

	assert.NoError(disk.RemoveFile(ctx, file.WithInfo(info)))
	assert.NoFileExists(info.Path)

	// Removing twice reports the missing file
	assert.ErrorIs(disk.RemoveFile(ctx, file.WithInfo(info)), os.ErrNotExist)
}

func Test_Disk_NameFuncs(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	disk, err := storage.NewDisk(
		storage.WithDestinationFunc(func(context.Context, *schema.File) (string, error) {
			return dir, nil
		}),
		storage.WithFilenameFunc(func(_ context.Context, file *schema.File) (string, error) {
			return file.FieldName + "-" + file.OriginalName, nil
		}),
	)
	require.NoError(t, err)

	info, err := disk.WriteFile(context.Background(), newFile("avatar", "me.png", strings.NewReader("png")))
	require.NoError(t, err)
	assert.Equal("avatar-me.png", info.Filename)
	assert.FileExists(filepath.Join(dir, "avatar-me.png"))
}

func Test_Disk_NameFuncError(t *testing.T) {
	assert := assert.New(t)
	errName := errors.New("no name")

	disk, err := storage.NewDisk(
		storage.WithDestination(t.TempDir()),
		storage.WithFilenameFunc(func(context.Context, *schema.File) (string, error) {
			return "", errName
		}),
	)
	require.NoError(t, err)

	_, err = disk.WriteFile(context.Background(), newFile("doc", "a.txt", strings.NewReader("x")))
	assert.ErrorIs(err, errName)
}

func Test_Disk_StreamErrorRemovesPartial(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	disk, err := storage.NewDisk(
		storage.WithDestination(dir),
		storage.WithFilenameFunc(func(context.Context, *schema.File) (string, error) {
			return "partial", nil
		}),
	)
	require.NoError(t, err)

	_, err = disk.WriteFile(context.Background(), newFile("doc", "a.txt", &failingReader{data: "abc", err: io.ErrUnexpectedEOF}))
	assert.ErrorIs(err, io.ErrUnexpectedEOF)
	assert.NoFileExists(filepath.Join(dir, "partial"))
}

func Test_Disk_Options(t *testing.T) {
	assert := assert.New(t)

	_, err := storage.NewDisk(storage.WithDestination(""))
	assert.Error(err)
	_, err = storage.NewDisk(storage.WithDestinationFunc(nil))
	assert.Error(err)
	_, err = storage.NewDisk(storage.WithFilenameFunc(nil))
	assert.Error(err)
}

func Test_RandomName(t *testing.T) {
	assert := assert.New(t)

	a, err := storage.RandomName(context.Background(), nil)
	assert.NoError(err)
	b, err := storage.RandomName(context.Background(), nil)
	assert.NoError(err)
	assert.Len(a, 32)
	assert.NotEqual(a, b)
	assert.NotContains(a, "-")
}
