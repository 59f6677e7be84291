package usftp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestClient builds a Client with no live transport behind it, wired just
// enough that a request can be queued and will time out quickly rather than
// block forever - sufficient to exercise RenameWithFlags's routing decisions
// without a real server. Tests only care whether the decision was "refuse
// without touching the wire" (UnsupportedOperation) or "attempt something
// over the wire" (anything else, here always a *Timeout).
func newTestClient(version uint32, exts ...string) *Client {
	ext := make(map[string]string, len(exts))
	for _, e := range exts {
		ext[e] = ""
	}
	c := &Client{version: version, ext: ext, timeout: 10 * time.Millisecond}
	c.respPool.New = c.newResponder
	c.conn.client = c
	c.conn.wC = make(chan *clientReq_, 4)
	return c
}

func isUnsupported(err error) bool {
	_, ok := err.(*UnsupportedOperation)
	return ok
}

func TestRenameWithFlagsEmptyUsesPlainRename(t *testing.T) {
	c := newTestClient(3)
	err := c.RenameWithFlags("/old", "/new", 0)
	assert.False(t, isUnsupported(err))
	assert.IsType(t, &Timeout{}, err)
}

func TestRenameWithFlagsOverwriteFallsBackToPosixRename(t *testing.T) {
	c := newTestClient(3, extensionKey("posix-rename", "openssh.com"))
	err := c.RenameWithFlags("/old", "/new", RenameOverwrite)
	assert.False(t, isUnsupported(err))
	assert.IsType(t, &Timeout{}, err)
}

func TestRenameWithFlagsOverwriteWithoutExtensionFails(t *testing.T) {
	c := newTestClient(3)
	err := c.RenameWithFlags("/old", "/new", RenameOverwrite)
	assert.True(t, isUnsupported(err))
}

func TestRenameWithFlagsAtomicAloneFails(t *testing.T) {
	c := newTestClient(3, extensionKey("posix-rename", "openssh.com"))
	err := c.RenameWithFlags("/old", "/new", RenameAtomic)
	assert.True(t, isUnsupported(err))
	assert.Contains(t, err.(*UnsupportedOperation).Reason, "OVERWRITE")
}

func TestRenameWithFlagsAtomicWithOverwriteFallsBack(t *testing.T) {
	c := newTestClient(3, extensionKey("posix-rename", "openssh.com"))
	err := c.RenameWithFlags("/old", "/new", RenameAtomic|RenameOverwrite)
	assert.False(t, isUnsupported(err))
	assert.IsType(t, &Timeout{}, err)
}

func TestRenameWithFlagsNativeUsesPlainRename(t *testing.T) {
	c := newTestClient(3)
	err := c.RenameWithFlags("/old", "/new", RenameNative)
	assert.False(t, isUnsupported(err))
	assert.IsType(t, &Timeout{}, err)
}

func TestRenameWithFlagsOtherCombinationFails(t *testing.T) {
	c := newTestClient(3)
	err := c.RenameWithFlags("/old", "/new", RenameFlags(0x40000000))
	assert.True(t, isUnsupported(err))
}

// TestRenameWithFlagsVersion5BranchIsReachable exercises the otherwise
// unreachable-against-a-real-server version >= 5 path, since this engine
// never negotiates past v3 on the wire but the decision table must still be
// a total, literal implementation per the spec.
func TestRenameWithFlagsVersion5BranchIsReachable(t *testing.T) {
	c := newTestClient(5)
	err := c.RenameWithFlags("/old", "/new", RenameOverwrite)
	assert.False(t, isUnsupported(err))
	assert.IsType(t, &Timeout{}, err)
}
