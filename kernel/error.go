package kernel

// Error describes an error detected by one of the kernel subsystems. Kernel
// errors are always defined as global variables pointing to an Error value so
// that raising one never allocates; errors.New is off limits to code that may
// run before the allocator is up.
type Error struct {
	// The subsystem where the error was detected.
	Module string

	// The error message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
