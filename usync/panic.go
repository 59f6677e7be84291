package usync

import (
	"strings"

	"github.com/tredeske/usftp/ulog"
)

//
// Ignore any panics.  Prefer IgnorePanicIn instead.
//
// Use: defer usync.IgnorePanic()
//
func IgnorePanic() {
	recover()
}

//
// Ignore any panics in activity().
//
func IgnorePanicIn(activity func()) {
	defer func() { recover() }()
	activity()
}

//
// Capture any panics in activity().
//
func CapturePanicIn(activity func()) (captured interface{}) {
	defer func() { captured = recover() }()
	activity()
	return
}

//
// Log any panics.
//
// Use: defer usync.LogPanic()
//
func LogPanic(msg string) {
	if it := recover(); it != nil {
		if 0 != len(msg) {
			ulog.Printf("PANIC: %s: %s", msg, it)
		} else {
			ulog.Printf("PANIC: %s", it)
		}
	}
}

//
// Log any panics in activity().
//
func LogPanicIn(msg string, activity func()) {
	defer func() {
		if it := recover(); it != nil {
			if 0 != len(msg) {
				ulog.Printf("PANIC: %s: %s", msg, it)
			} else {
				ulog.Printf("PANIC: %s", it)
			}
		}
	}()
	activity()
}

//
// Ignore a panic caused by sending on or closing an already-closed chan.
// Re-panics on anything else.
//
// Use directly with defer, no outer func needed:
//
//	defer usync.BareIgnoreClosedChanPanic()
//	thingC <- thing
//
func BareIgnoreClosedChanPanic() {
	if it := recover(); it != nil {
		if e, ok := it.(error); !ok ||
			-1 == strings.Index(e.Error(), "closed channel") {
			panic(it)
		}
	}
}

//
// Ignore a panic caused by sending on or closing an already-closed chan.
// Re-panics on anything else.
//
// Pass it the result of recover() inside a deferred func:
//
//	defer func() {
//		if usync.IgnoreClosedChanPanic(recover()) {
//			// ...
//		}
//	}()
//	thingC <- thing
//
// Returns true if recovered is a closed chan panic, false if it is nil.
//
func IgnoreClosedChanPanic(recovered any) (ignored bool) {
	if nil != recovered {
		if e, ok := recovered.(error); !ok ||
			-1 == strings.Index(e.Error(), "closed channel") {
			panic(recovered)
		}
		ignored = true
	}
	return
}

//
// Log any panics and exit the program.
//
// Use: defer usync.FatalPanic()
//
func FatalPanic(msg string) {
	if it := recover(); it != nil {
		if 0 != len(msg) {
			ulog.Fatalf("PANIC: %s: %s", msg, it)
		} else {
			ulog.Fatalf("PANIC: %s", it)
		}
	}
}
