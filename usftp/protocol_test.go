package usftp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusErrorIsMatchesFxerrSentinel(t *testing.T) {
	err := &StatusError{Code: sshFxNoSuchFile}
	assert.True(t, errors.Is(err, ErrSSHFxNoSuchFile))
	assert.False(t, errors.Is(err, ErrSSHFxPermissionDenied))
}

func TestStatusErrorMessageFallsBackToCode(t *testing.T) {
	err := &StatusError{Code: sshFxPermissionDenied}
	assert.Equal(t, ErrSSHFxPermissionDenied.Error(), err.Error())

	withMsg := &StatusError{Code: sshFxPermissionDenied, msg: "custom detail"}
	assert.Equal(t, "custom detail", withMsg.Error())
}

func TestTimeoutError(t *testing.T) {
	err := &Timeout{Op: "stat", Timeout: 5 * time.Second}
	assert.Contains(t, err.Error(), "stat")
	assert.Contains(t, err.Error(), "5s")
}

func TestUnsupportedOperationError(t *testing.T) {
	err := &UnsupportedOperation{Op: "rename", Reason: "no extension"}
	assert.Contains(t, err.Error(), "rename")
	assert.Contains(t, err.Error(), "no extension")
}

func TestClosedIsASentinelError(t *testing.T) {
	assert.Equal(t, "sftp client closed", Closed.Error())
	assert.True(t, errors.Is(error(Closed), Closed))
}

func TestWithTimeoutOption(t *testing.T) {
	c := &Client{}
	opt := WithTimeout(7 * time.Second)
	assert.NoError(t, opt(c))
	assert.Equal(t, 7*time.Second, c.timeout)

	c.SetTimeout(2 * time.Second)
	assert.Equal(t, 2*time.Second, c.timeout)
}
