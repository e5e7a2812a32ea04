package as7262

import "fmt"

// field describes a group of adjacent bits inside a virtual register.
type field struct {
	name  string
	reg   byte
	shift uint8
	width uint8
}

var (
	fieldMode             = field{name: "measurement mode", reg: RegControlSetup, shift: 2, width: 2}
	fieldGain             = field{name: "gain", reg: RegControlSetup, shift: 4, width: 2}
	fieldIndicatorEnable  = field{name: "indicator led enable", reg: RegLEDControl, shift: 0, width: 1}
	fieldIndicatorCurrent = field{name: "indicator led current", reg: RegLEDControl, shift: 1, width: 2}
	fieldMainLEDEnable    = field{name: "main led enable", reg: RegLEDControl, shift: 3, width: 1}
	fieldMainLEDCurrent   = field{name: "main led current", reg: RegLEDControl, shift: 6, width: 2}
)

func (f field) mask() byte {
	return byte(1<<f.width-1) << f.shift
}

func (f field) max() int {
	return 1<<f.width - 1
}

func (f field) validate(value int) error {
	if value < 0 || value > f.max() {
		return fmt.Errorf("%w: %s requires a value of 0-%d, got %d", ErrInvalidArgument, f.name, f.max(), value)
	}
	return nil
}

// set returns current with the field bits replaced by value. value must have been validated.
func (f field) set(current byte, value int) byte {
	return current&^f.mask() | byte(value)<<f.shift&f.mask()
}

func (f field) get(current byte) int {
	return int((current & f.mask()) >> f.shift)
}
