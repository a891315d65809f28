package version_test

import (
	"encoding/json"
	"runtime"
	"testing"

	// Packages
	version "github.com/mutablelogic/go-upload/pkg/version"
	assert "github.com/stretchr/testify/assert"
)

func Test_Version_Tag(t *testing.T) {
	assert := assert.New(t)

	defer func(tag, branch string) {
		version.GitTag, version.GitBranch = tag, branch
	}(version.GitTag, version.GitBranch)

	version.GitTag, version.GitBranch = "v1.2.3", "main"
	assert.Equal("v1.2.3", version.Version())

	version.GitTag = ""
	assert.Equal("main", version.Version())
}

func Test_Version_JSON(t *testing.T) {
	assert := assert.New(t)

	var info version.Info
	assert.NoError(json.Unmarshal(version.JSON("uploader"), &info))
	assert.Equal("uploader", info.Name)
	assert.Equal(runtime.Version(), info.Compiler)
	assert.NotEmpty(info.Version)
}
