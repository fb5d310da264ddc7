package core

// Logger is the application-wide structured logger contract.
// args may carry an error, a map of extra fields, or a registry entity for
// error-reporting context; implementations decide what to do with each.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
