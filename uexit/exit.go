package uexit

import (
	"os"
	"time"
)

//
// Time to wait for stuff to die, if anything registered
//
var WaitTime = 5 * time.Second

//
// cause the process to exit
//
func Exit(code int) {
	os.Exit(code)
}
