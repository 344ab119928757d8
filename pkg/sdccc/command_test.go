package sdccc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs(t *testing.T) {
	argv := BuildArgs(Args{
		"testconfig":        "/abs/requirements.toml",
		"config":            "/abs/config.toml",
		"no_subdirectories": "true",
		"ipv6":              true,
		"graphql":           false,
		"retries":           3,
	})

	assert.Equal(t, []string{
		"--config", "/abs/config.toml",
		"--ipv6",
		"--no_subdirectories", "true",
		"--retries", "3",
		"--testconfig", "/abs/requirements.toml",
	}, argv)
}

func TestBuildArgsEmpty(t *testing.T) {
	assert.Empty(t, BuildArgs(nil))
	assert.Empty(t, BuildArgs(Args{}))
}
