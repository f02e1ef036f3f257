package core

// Logger is any service the app can log to.
// Implementations may inspect args for an error, a map of extra fields
// or a logged-in user value.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
