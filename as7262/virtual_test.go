package as7262

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRegisterBus is a mock implementation of spectral.RegisterBus using testify/mock
type MockRegisterBus struct {
	mock.Mock
}

func (m *MockRegisterBus) ReadRegister(ctx context.Context, address byte, register byte) (byte, error) {
	args := m.Called(ctx, address, register)
	return args.Get(0).(byte), args.Error(1)
}

func (m *MockRegisterBus) WriteRegister(ctx context.Context, address byte, register byte, value byte) error {
	args := m.Called(ctx, address, register, value)
	return args.Error(0)
}

type physicalCall struct {
	method   string
	register byte
	value    byte
}

func recordedCalls(m *MockRegisterBus) []physicalCall {
	res := make([]physicalCall, 0, len(m.Calls))
	for _, c := range m.Calls {
		pc := physicalCall{method: c.Method, register: c.Arguments.Get(2).(byte)}
		if c.Method == "WriteRegister" {
			pc.value = c.Arguments.Get(3).(byte)
		}
		res = append(res, pc)
	}
	return res
}

func TestVirtualRegisters_ReadSequence(t *testing.T) {
	bus := new(MockRegisterBus)
	regs := NewVirtualRegisters(bus)
	ctx := context.Background()

	bus.On("ReadRegister", mock.Anything, byte(DefaultAddress), regStatus).Return(byte(0x00), nil).Once()
	bus.On("WriteRegister", mock.Anything, byte(DefaultAddress), regWrite, byte(0x06)).Return(nil).Once()
	bus.On("ReadRegister", mock.Anything, byte(DefaultAddress), regStatus).Return(statusRxValid, nil).Once()
	bus.On("ReadRegister", mock.Anything, byte(DefaultAddress), regRead).Return(byte(0x1A), nil).Once()

	val, err := regs.Read(ctx, RegTemperature)
	require.NoError(t, err)
	assert.Equal(t, byte(0x1A), val)
	assert.Equal(t, []physicalCall{
		{method: "ReadRegister", register: regStatus},
		{method: "WriteRegister", register: regWrite, value: 0x06},
		{method: "ReadRegister", register: regStatus},
		{method: "ReadRegister", register: regRead},
	}, recordedCalls(bus))
	bus.AssertExpectations(t)
}

func TestVirtualRegisters_WriteSequence(t *testing.T) {
	bus := new(MockRegisterBus)
	regs := NewVirtualRegisters(bus)
	ctx := context.Background()

	bus.On("ReadRegister", mock.Anything, byte(DefaultAddress), regStatus).Return(byte(0x00), nil).Twice()
	bus.On("WriteRegister", mock.Anything, byte(DefaultAddress), regWrite, byte(0x87)).Return(nil).Once()
	bus.On("WriteRegister", mock.Anything, byte(DefaultAddress), regWrite, byte(0x44)).Return(nil).Once()

	require.NoError(t, regs.Write(ctx, RegLEDControl, 0x44))
	assert.Equal(t, []physicalCall{
		{method: "ReadRegister", register: regStatus},
		{method: "WriteRegister", register: regWrite, value: 0x87},
		{method: "ReadRegister", register: regStatus},
		{method: "WriteRegister", register: regWrite, value: 0x44},
	}, recordedCalls(bus))
	bus.AssertExpectations(t)
}

func TestVirtualRegisters_WaitsForStatus(t *testing.T) {
	t.Run("read waits for rx valid", func(t *testing.T) {
		sim := NewRegisterFile(WithBusyPolls(3), WithRegisters(map[byte]byte{0x05: 0x64}))
		regs := NewVirtualRegisters(sim)

		val, err := regs.Read(context.Background(), RegIntegrationTime)
		require.NoError(t, err)
		assert.Equal(t, byte(0x64), val)
		// status, address, 3 busy polls + 1 rx poll, read
		assert.Equal(t, 7, sim.Calls())
	})

	t.Run("write waits for tx drain", func(t *testing.T) {
		sim := NewRegisterFile(WithBusyPolls(2))
		regs := NewVirtualRegisters(sim)

		require.NoError(t, regs.Write(context.Background(), RegIntegrationTime, 0x20))
		// status, address, 2 busy polls + 1 idle poll, value
		assert.Equal(t, 6, sim.Calls())
		assert.Equal(t, byte(0x20), sim.Register(RegIntegrationTime))
		assert.Equal(t, []VirtualWrite{{Register: RegIntegrationTime, Value: 0x20}}, sim.Writes())
	})

	t.Run("poll interval", func(t *testing.T) {
		sim := NewRegisterFile(WithBusyPolls(2))
		regs := NewVirtualRegisters(sim, WithHandshakePollInterval(5*time.Millisecond))

		start := time.Now()
		require.NoError(t, regs.Write(context.Background(), RegIntegrationTime, 0x20))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})
}

func TestVirtualRegisters_TransportErrors(t *testing.T) {
	tests := []struct {
		name     string
		fault    func(op string, register byte) error
		op       string
		register byte
		call     func(ctx context.Context, regs *VirtualRegisters) error
	}{
		{
			name: "status read",
			fault: func(op string, register byte) error {
				if register == regStatus {
					return ErrSimulatedFault
				}
				return nil
			},
			op:       "read",
			register: regStatus,
			call: func(ctx context.Context, regs *VirtualRegisters) error {
				_, err := regs.Read(ctx, RegTemperature)
				return err
			},
		},
		{
			name: "address write",
			fault: func(op string, register byte) error {
				if op == "write" {
					return ErrSimulatedFault
				}
				return nil
			},
			op:       "write",
			register: regWrite,
			call: func(ctx context.Context, regs *VirtualRegisters) error {
				return regs.Write(ctx, RegTemperature, 0x01)
			},
		},
		{
			name: "data read",
			fault: func(op string, register byte) error {
				if register == regRead {
					return ErrSimulatedFault
				}
				return nil
			},
			op:       "read",
			register: regRead,
			call: func(ctx context.Context, regs *VirtualRegisters) error {
				_, err := regs.Read(ctx, RegTemperature)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewRegisterFile(WithFault(tt.fault))
			regs := NewVirtualRegisters(sim)

			err := tt.call(context.Background(), regs)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSimulatedFault)
			var terr *TransportError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.op, terr.Op)
			assert.Equal(t, tt.register, terr.Register)
			assert.Equal(t, RegTemperature, terr.Virtual)
		})
	}
}

func TestVirtualRegisters_WrongAddress(t *testing.T) {
	sim := NewRegisterFile(WithSimulatorAddress(0x39))
	regs := NewVirtualRegisters(sim)

	_, err := regs.Read(context.Background(), RegTemperature)
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Contains(t, err.Error(), "no device at address 0x49")
}

func TestVirtualRegisters_HandshakeTimeout(t *testing.T) {
	mockClock := clock.NewMock()
	sim := NewRegisterFile(WithBusyPolls(1000), WithReadHook(func(register byte) {
		if register == regStatus {
			mockClock.Add(4 * time.Millisecond)
		}
	}))
	regs := NewVirtualRegisters(sim, WithClock(mockClock), WithHandshakeTimeout(10*time.Millisecond))

	_, err := regs.Read(context.Background(), RegTemperature)
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.ErrorIs(t, err, ErrTimeout)
	// status, address, then 3 polls until more than 10ms elapsed
	assert.Equal(t, 5, sim.Calls())
}

func TestVirtualRegisters_ContextCancelled(t *testing.T) {
	sim := NewRegisterFile(WithBusyPolls(1000))
	regs := NewVirtualRegisters(sim)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := regs.Read(ctx, RegTemperature)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVirtualRegisters_OutOfRange(t *testing.T) {
	sim := NewRegisterFile()
	regs := NewVirtualRegisters(sim)
	ctx := context.Background()

	_, err := regs.Read(ctx, 0x80)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, regs.Write(ctx, 0xFF, 0x00), ErrInvalidArgument)
	assert.ErrorIs(t, regs.ReadBlock(ctx, 0x70, make([]byte, 17)), ErrInvalidArgument)
	assert.Equal(t, 0, sim.Calls())

	assert.NoError(t, regs.ReadBlock(ctx, 0x70, make([]byte, 16)))
}

func TestVirtualRegisters_ReadBlock(t *testing.T) {
	sim := NewRegisterFile(WithRegisters(map[byte]byte{0x20: 0xAA, 0x21: 0xBB, 0x22: 0xCC}))
	regs := NewVirtualRegisters(sim)

	buf := make([]byte, 3)
	require.NoError(t, regs.ReadBlock(context.Background(), 0x20, buf))
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, buf)
}

func TestVirtualRegisters_ConcurrentUpdates(t *testing.T) {
	sim := NewRegisterFile(WithBusyPolls(1))
	regs := NewVirtualRegisters(sim)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			err := regs.Update(ctx, 0x10, func(current byte) byte {
				return current + 1
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, byte(workers), sim.Register(0x10))
	assert.Len(t, sim.Writes(), workers)
}
