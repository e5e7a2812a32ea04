package as7262

import "fmt"

// ErrInvalidArgument is returned when a setter input is outside its domain. No bus access happens in that case.
var ErrInvalidArgument = fmt.Errorf("as7262: invalid argument")

// ErrTimeout is returned when the sensor did not signal that data is ready within the configured time.
var ErrTimeout = fmt.Errorf("as7262: timeout")

// ErrHandshakeTimeout is returned by the virtual register protocol when an optional handshake bound is set and
// exceeded. It matches ErrTimeout with errors.Is.
var ErrHandshakeTimeout = fmt.Errorf("%w: virtual register handshake did not complete", ErrTimeout)

// TransportError reports a failure of the underlying bus. The bus error is available through errors.Unwrap.
type TransportError struct {
	// Op is either "read" or "write".
	Op string
	// Register is the physical register the transaction targeted.
	Register byte
	// Virtual is the virtual register the handshake was serving.
	Virtual byte
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("as7262: transport %s of register %#02x (virtual %#02x) failed: %v", e.Op, e.Register, e.Virtual, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
