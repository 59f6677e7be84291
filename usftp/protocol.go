package usftp

import (
	"fmt"
	"time"

	"github.com/tredeske/usftp/uerr"
)

// wire format of the SFTP v3 subsystem protocol
//
// https://filezilla-project.org/specs/draft-ietf-secsh-filexfer-02.txt
const (
	sshFxpInit          = 1
	sshFxpVersion       = 2
	sshFxpOpen          = 3
	sshFxpClose         = 4
	sshFxpRead          = 5
	sshFxpWrite         = 6
	sshFxpLstat         = 7
	sshFxpFstat         = 8
	sshFxpSetstat       = 9
	sshFxpFsetstat      = 10
	sshFxpOpendir       = 11
	sshFxpReaddir       = 12
	sshFxpRemove        = 13
	sshFxpMkdir         = 14
	sshFxpRmdir         = 15
	sshFxpRealpath      = 16
	sshFxpStat          = 17
	sshFxpRename        = 18
	sshFxpReadlink      = 19
	sshFxpSymlink       = 20
	sshFxpStatus        = 101
	sshFxpHandle        = 102
	sshFxpData          = 103
	sshFxpName          = 104
	sshFxpAttrs         = 105
	sshFxpExtended      = 200
	sshFxpExtendedReply = 201
)

// status codes carried in SSH_FXP_STATUS responses
const (
	sshFxOk               = 0
	sshFxEOF              = 1
	sshFxNoSuchFile       = 2
	sshFxPermissionDenied = 3
	sshFxFailure          = 4
	sshFxBadMessage       = 5
	sshFxNoConnection     = 6
	sshFxConnectionLost   = 7
	sshFxOPUnsupported    = 8

	// not part of the v3 draft, but returned by some servers (OpenSSH among
	// them) in a plain SSH_FX_FAILURE's place when the target of an op that
	// expects a file is actually a directory.  Treated as a synonym of
	// sshFxFailure wherever the distinction matters to a caller.
	sshFxFileIsADirectory = 11
)

// StatusError reports a SSH_FXP_STATUS response whose code was not OK.
//
// It is the error returned for any per-request protocol-level failure -
// a missing file, a permission problem, an unsupported op, and so on.
type StatusError struct {
	Code uint32
	msg  string
	lang string
}

func (err *StatusError) Error() string {
	if 0 != len(err.msg) {
		return err.msg
	}
	return fxerr(err.Code).Error()
}

// Is enables errors.Is(err, ErrSSHFxNoSuchFile) and friends.
func (err *StatusError) Is(target error) bool {
	if code, ok := target.(fxerr); ok {
		return uint32(code) == err.Code
	}
	return false
}

// unexpectedPacketErr reports a response of a type other than what was
// awaited for a given request.
type unexpectedPacketErr struct {
	want, got uint8
}

func (err *unexpectedPacketErr) Error() string {
	return fmt.Sprintf("unexpected packet: want %d, got %d", err.want, err.got)
}

// unexpectedVersionErr reports a server VERSION response that did not match
// the version proposed in our INIT.
type unexpectedVersionErr struct {
	want, got uint32
}

func (err *unexpectedVersionErr) Error() string {
	return fmt.Sprintf("unexpected sftp version: want %d, got %d", err.want, err.got)
}

// unexpectedCount reports a SSH_FXP_NAME response that did not carry the
// single name entry an operation (readlink, realpath) requires.
func unexpectedCount(want int, got uint32) error {
	return fmt.Errorf("unexpected name count: want %d, got %d", want, got)
}

// unimplementedSeekWhence reports a File.Seek call using a whence value
// other than io.SeekStart/io.SeekCurrent/io.SeekEnd.
func unimplementedSeekWhence(whence int) error {
	return fmt.Errorf("unimplemented seek whence: %d", whence)
}

// unimplementedPacketErr reports a response packet type this client has no
// handling for in the given context.
func unimplementedPacketErr(typ uint8) error {
	return fmt.Errorf("unimplemented packet type: %d", typ)
}

// Timeout reports that an operation's request/response round trip did not
// complete within its configured deadline.  The request may still be
// outstanding on the server; any late response is silently dropped.
type Timeout struct {
	Op      string
	Timeout time.Duration
}

func (err *Timeout) Error() string {
	return fmt.Sprintf("%s: timed out after %s", err.Op, err.Timeout)
}

// UnsupportedOperation reports an engine-side refusal to attempt an
// operation the negotiated protocol version (and any extension fallback)
// cannot express.  No packet is sent to the server for these.
type UnsupportedOperation struct {
	Op     string
	Reason string
}

func (err *UnsupportedOperation) Error() string {
	return fmt.Sprintf("%s: unsupported: %s", err.Op, err.Reason)
}

// Closed reports a call made against a Client whose underlying connection
// has already been closed, locally or as a result of a TransportError.
const Closed = uerr.Const("sftp client closed")

// errNotADirectory is wrapped in an *os.PathError by MkdirAll when a path
// component it expected to descend into is actually a regular file.
const errNotADirectory = uerr.Const("not a directory")
