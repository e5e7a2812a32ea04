package as7262

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/spectral"
)

var ErrSimulatedFault = fmt.Errorf("as7262: simulated transport fault")

// Register values after power up or a soft reset
const (
	defaultControl     byte = 0x0C
	defaultIntegration byte = 0xFF
	defaultLEDControl  byte = 0x00
)

// last byte of the calibrated channel block
const lastChannelRegister = RegChannelData + channelBlockSize - 1

// VirtualWrite is a completed virtual register write seen by a Simulator.
type VirtualWrite struct {
	Register byte
	Value    byte
}

type SimulatorOpts struct {
	Address byte
	// BusyPolls is the number of status polls reporting TX_VALID after every physical write.
	BusyPolls int
	// AcquisitionReads is the number of control register reads before DATA_RDY appears once an acquisition
	// started. A negative value means data never becomes ready.
	AcquisitionReads int
	Spectrum         Spectrum
	Temperature      byte
	Registers        map[byte]byte
	// ReadHook is called with the physical register on every ReadRegister call.
	ReadHook func(register byte)
	// Fault, when it returns a non-nil error, fails the physical access.
	Fault func(op string, register byte) error
}

type SimulatorOpt func(*SimulatorOpts)

func WithSimulatorAddress(address byte) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.Address = address
	}
}

func WithBusyPolls(polls int) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.BusyPolls = polls
	}
}

func WithAcquisitionReads(reads int) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.AcquisitionReads = reads
	}
}

func WithSpectrum(spectrum Spectrum) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.Spectrum = spectrum
	}
}

func WithTemperature(celsius byte) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.Temperature = celsius
	}
}

// WithRegisters seeds virtual registers. Seeded values are applied after the power up defaults.
func WithRegisters(values map[byte]byte) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.Registers = values
	}
}

func WithReadHook(hook func(register byte)) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.ReadHook = hook
	}
}

func WithFault(fault func(op string, register byte) error) SimulatorOpt {
	return func(o *SimulatorOpts) {
		o.Fault = fault
	}
}

// Simulator emulates the physical side of the sensor: the status register, the write/read register pair and
// the virtual register file behind them. It implements spectral.RegisterBus.
type Simulator struct {
	mx        sync.Mutex
	opts      SimulatorOpts
	semantics bool
	regs      [int(maxVirtualRegister) + 1]byte
	txPending int
	rx        bool
	rxValue   byte
	// address phase of a write seen, waiting for the value
	writePending bool
	writeReg     byte
	// control register reads left until DATA_RDY, -1 when no acquisition runs
	acquiring int
	calls     int
	writes    []VirtualWrite
}

var _ spectral.RegisterBus = &Simulator{}

// NewSimulator returns a simulated device: a reset restores defaults, control writes start acquisitions and
// reading the last channel byte consumes the result.
func NewSimulator(opts ...SimulatorOpt) *Simulator {
	s := newSimulator(opts)
	s.semantics = true
	s.reset()
	for reg, val := range s.opts.Registers {
		s.regs[reg&maxVirtualRegister] = val
	}
	return s
}

// NewRegisterFile returns a Simulator that stores every virtual write verbatim and has no device behaviour.
func NewRegisterFile(opts ...SimulatorOpt) *Simulator {
	s := newSimulator(opts)
	for reg, val := range s.opts.Registers {
		s.regs[reg&maxVirtualRegister] = val
	}
	return s
}

func newSimulator(opts []SimulatorOpt) *Simulator {
	config := SimulatorOpts{Address: DefaultAddress, Temperature: 25}
	for _, opt := range opts {
		opt(&config)
	}
	return &Simulator{opts: config, acquiring: -1}
}

func (s *Simulator) ReadRegister(_ context.Context, address byte, register byte) (byte, error) {
	if s.opts.ReadHook != nil {
		s.opts.ReadHook(register)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	s.calls++
	if err := s.check("read", address, register); err != nil {
		return 0, err
	}
	switch register {
	case regStatus:
		var status byte
		if s.txPending > 0 {
			s.txPending--
			status |= statusTxValid
		} else if s.rx {
			status |= statusRxValid
		}
		return status, nil
	case regRead:
		s.rx = false
		return s.rxValue, nil
	default:
		return 0, fmt.Errorf("as7262 simulator: register %#02x is not readable", register)
	}
}

func (s *Simulator) WriteRegister(_ context.Context, address byte, register byte, value byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.calls++
	if err := s.check("write", address, register); err != nil {
		return err
	}
	if register != regWrite {
		return fmt.Errorf("as7262 simulator: register %#02x is not writable", register)
	}
	s.txPending = s.opts.BusyPolls
	switch {
	case s.writePending:
		s.writePending = false
		s.store(s.writeReg, value)
	case value&writeFlag != 0:
		s.writePending = true
		s.writeReg = value &^ writeFlag
	default:
		s.rxValue = s.load(value)
		s.rx = true
	}
	return nil
}

func (s *Simulator) check(op string, address byte, register byte) error {
	if address != s.opts.Address {
		return fmt.Errorf("as7262 simulator: no device at address %#02x", address)
	}
	if s.opts.Fault != nil {
		if err := s.opts.Fault(op, register); err != nil {
			return err
		}
	}
	return nil
}

// Calls returns the number of physical register accesses so far.
func (s *Simulator) Calls() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.calls
}

// Writes returns all completed virtual register writes in order.
func (s *Simulator) Writes() []VirtualWrite {
	s.mx.Lock()
	defer s.mx.Unlock()
	res := make([]VirtualWrite, len(s.writes))
	copy(res, s.writes)
	return res
}

// Register returns the current content of a virtual register without going through the handshake.
func (s *Simulator) Register(reg byte) byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.regs[reg&maxVirtualRegister]
}

func (s *Simulator) SetRegister(reg byte, value byte) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.regs[reg&maxVirtualRegister] = value
}

// SetSpectrum changes the readings reported by the next acquisition.
func (s *Simulator) SetSpectrum(spectrum Spectrum) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.opts.Spectrum = spectrum
}

func (s *Simulator) load(reg byte) byte {
	val := s.regs[reg&maxVirtualRegister]
	if !s.semantics {
		return val
	}
	switch {
	case reg == RegControlSetup && s.acquiring >= 0:
		if s.acquiring == 0 {
			s.complete()
			val = s.regs[reg]
		} else {
			s.acquiring--
		}
	case reg == lastChannelRegister && s.regs[RegControlSetup]&controlDataReady != 0:
		s.regs[RegControlSetup] &^= controlDataReady
		if Mode(fieldMode.get(s.regs[RegControlSetup])) != ModeOneShot {
			s.start()
		}
	}
	return val
}

func (s *Simulator) store(reg byte, value byte) {
	s.writes = append(s.writes, VirtualWrite{Register: reg, Value: value})
	if !s.semantics {
		s.regs[reg] = value
		return
	}
	switch {
	case reg == RegControlSetup:
		if value&controlReset != 0 {
			s.reset()
			return
		}
		s.regs[reg] = value &^ (controlReset | controlDataReady)
		s.start()
	case reg == RegTemperature || (reg >= 0x08 && reg <= lastChannelRegister):
		// read only
	default:
		s.regs[reg] = value
	}
}

func (s *Simulator) reset() {
	s.regs = [len(s.regs)]byte{}
	s.regs[RegControlSetup] = defaultControl
	s.regs[RegIntegrationTime] = defaultIntegration
	s.regs[RegLEDControl] = defaultLEDControl
	s.regs[RegTemperature] = s.opts.Temperature
	s.acquiring = -1
}

func (s *Simulator) start() {
	if s.opts.AcquisitionReads < 0 {
		s.acquiring = -1
		return
	}
	s.acquiring = s.opts.AcquisitionReads
}

func (s *Simulator) complete() {
	s.acquiring = -1
	for i := range s.opts.Spectrum {
		// wire order is V,B,G,Y,O,R
		off := int(RegChannelData) + i*4
		encodeFloat(s.regs[off:off+4], s.opts.Spectrum[len(s.opts.Spectrum)-1-i])
	}
	s.regs[RegControlSetup] |= controlDataReady
}
