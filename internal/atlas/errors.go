package atlas

import "fmt"

// InvalidArgumentError reports a configuration value that is out of range.
type InvalidArgumentError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %s: %s", e.Name, e.Value, e.Reason)
}

// PathError reports a source path that cannot be turned into a logical name.
type PathError struct {
	Path string
	Root string
	Err  error
}

func (e *PathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid path '%s': %v", e.Path, e.Err)
	}
	return fmt.Sprintf("path '%s' does not start with root: %s", e.Path, e.Root)
}

func (e *PathError) Unwrap() error { return e.Err }
