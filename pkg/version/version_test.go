package version_test

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/codemetrics/pkg/version"
)

func TestGet(t *testing.T) {
	t.Parallel()

	info := version.Get()

	assert.Equal(t, version.Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.NotEmpty(t, info.Commit)
}

func TestInfo_String(t *testing.T) {
	t.Parallel()

	info := version.Info{Version: "1.2.0", Commit: "abc123", GoVersion: "go1.24.5", Platform: "linux/amd64"}

	assert.Equal(t, "codemetrics 1.2.0 (commit abc123, go1.24.5, linux/amd64)", info.String())
	assert.True(t, strings.HasPrefix(version.Get().String(), "codemetrics "))
}
