package schema

import (
	"errors"
	"fmt"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
)

func Test_Error_Message(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Too many parts", NewError(CodeLimitPartCount, "").Error())
	assert.Equal(`Unexpected field: "avatar"`, NewError(CodeLimitUnexpectedFile, "avatar").Error())
	assert.Equal("SOMETHING", Code("SOMETHING").Message())
}

func Test_Error_Is(t *testing.T) {
	assert := assert.New(t)

	err := fmt.Errorf("wrapped: %w", NewError(CodeLimitFileSize, "photo"))
	assert.True(errors.Is(err, ErrLimitFileSize))
	assert.True(errors.Is(err, NewError(CodeLimitFileSize, "photo")))
	assert.False(errors.Is(err, NewError(CodeLimitFileSize, "other")))
	assert.False(errors.Is(err, ErrLimitFileCount))
}

func Test_Error_WithStorageErrors(t *testing.T) {
	assert := assert.New(t)
	removeErr := &StorageError{Field: "a", Err: errors.New("unlink failed")}

	t.Run("UploadError", func(t *testing.T) {
		err := WithStorageErrors(ErrLimitUnexpectedFile, []*StorageError{removeErr})
		assert.True(errors.Is(err, ErrLimitUnexpectedFile))
		assert.Len(StorageErrors(err), 1)
		assert.Nil(ErrLimitUnexpectedFile.StorageErrors, "sentinel must not be mutated")
	})

	t.Run("OtherError", func(t *testing.T) {
		primary := errors.New("disk full")
		err := WithStorageErrors(primary, []*StorageError{removeErr})
		assert.ErrorIs(err, primary)
		assert.Equal("disk full", err.Error())
		assert.Equal([]*StorageError{removeErr}, StorageErrors(err))
	})

	t.Run("NoStorageErrors", func(t *testing.T) {
		assert.Nil(StorageErrors(errors.New("plain")))
	})

	t.Run("StorageErrorUnwrap", func(t *testing.T) {
		assert.Equal("a: unlink failed", removeErr.Error())
		assert.EqualError(errors.Unwrap(removeErr), "unlink failed")
	})
}
