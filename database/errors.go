package database

import "fmt"

// ConfigError reports settings the factory cannot work with. It is returned
// once, at construction, and is not worth retrying.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("database config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ConnectionError reports a failure to open, verify, lend out or close the
// database handle.
type ConnectionError struct {
	Driver string
	Target string
	Op     string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Driver, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
