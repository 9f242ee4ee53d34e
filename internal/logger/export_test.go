package logger

import "os"

var (
	osExit   = os.Exit
	osStderr = os.Stderr
)
