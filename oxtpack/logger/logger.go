/*
Package logger defines the logging interface the library writes to. Install an
implementation with oxtpack.SetLogger; by default nothing is logged.
*/
package logger

type Logger interface {
	Errorf(format string, args ...interface{})
	Error(args ...interface{})
	Warnf(format string, args ...interface{})
	Warn(args ...interface{})
	Infof(format string, args ...interface{})
	Info(args ...interface{})
	Debugf(format string, args ...interface{})
	Debug(args ...interface{})
}
