package sshexec

import (
	"os/exec"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestArgsBatchMode(t *testing.T) {
	cfg := Config{Host: "files.example.net"}

	assert.Equal(t,
		[]string{"-oBatchMode=yes", "files.example.net", "-s", "sftp"},
		cfg.args())
}

func TestArgsFullySpecified(t *testing.T) {
	cfg := Config{
		Host:        "files.example.net",
		Port:        2022,
		User:        "afd",
		Password:    "secret",
		Fingerprint: "SHA256:abcdef",
		KeepAlive:   true,
		Options:     []string{"Compression=yes"},
	}

	got := cfg.args()

	// No BatchMode with a password: ssh must be allowed to prompt.
	assert.NotContains(t, got, "-oBatchMode=yes")
	assert.NotContains(t, got, "secret")

	assert.Equal(t, []string{
		"-oServerAliveInterval=30",
		"-oStrictHostKeyChecking=yes",
		"-oCompression=yes",
		"-p", "2022",
		"-l", "afd",
		"files.example.net", "-s", "sftp",
	}, got)
}

func TestIgnoreExitError(t *testing.T) {
	assert.NoError(t, ignoreExitError(nil))
	assert.NoError(t, ignoreExitError(&exec.ExitError{}))

	err := errors.New("pipe gone")
	assert.Equal(t, err, ignoreExitError(err))
}
