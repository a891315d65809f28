package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Info describes the build of an executable
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Compiler  string `json:"compiler"`
	Source    string `json:"source,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Hash      string `json:"hash,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Set with -ldflags "-X github.com/mutablelogic/go-upload/pkg/version.GitTag=..."
var (
	GitSource   string
	GitTag      string
	GitBranch   string
	GitHash     string
	GoBuildTime string
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Version returns the git tag, the branch or the short VCS revision, or
// "dev" when none is known
func Version() string {
	switch {
	case GitTag != "":
		return GitTag
	case GitBranch != "":
		return GitBranch
	}
	if revision := setting("vcs.revision"); revision != "" {
		return revision[:min(len(revision), 12)]
	}
	return "dev"
}

// Get returns the build information for the named executable. Values set
// with -ldflags take precedence over the embedded build info.
func Get(name string) Info {
	info := Info{
		Name:      name,
		Version:   Version(),
		Compiler:  runtime.Version(),
		Source:    GitSource,
		Branch:    GitBranch,
		Hash:      GitHash,
		BuildTime: GoBuildTime,
	}
	if build, ok := debug.ReadBuildInfo(); ok {
		if info.Source == "" {
			info.Source = build.Main.Path
		}
		if info.Hash == "" {
			info.Hash = setting("vcs.revision")
		}
		if info.BuildTime == "" {
			info.BuildTime = setting("vcs.time")
		}
		info.Modified = setting("vcs.modified") == "true"
		if goos, goarch := setting("GOOS"), setting("GOARCH"); goos != "" && goarch != "" {
			info.Platform = goos + "/" + goarch
		}
	}
	return info
}

// JSON returns the indented build information for the named executable
func JSON(name string) []byte {
	data, err := json.MarshalIndent(Get(name), "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func setting(key string) string {
	if build, ok := debug.ReadBuildInfo(); ok {
		for _, s := range build.Settings {
			if s.Key == key {
				return s.Value
			}
		}
	}
	return ""
}
