package accel

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/imu"
)

// MockRegisterBus is a mock implementation of imu.RegisterBus using testify/mock
type MockRegisterBus struct {
	mock.Mock
}

func (m *MockRegisterBus) WriteRegister(ctx context.Context, address byte, register byte, value byte) error {
	args := m.Called(ctx, address, register, value)
	return args.Error(0)
}

func (m *MockRegisterBus) ReadRegisters(ctx context.Context, address byte, register byte, buffer []byte) error {
	args := m.Called(ctx, address, register, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func expectWhoAmI(bus *MockRegisterBus, id byte) {
	bus.On("ReadRegisters", mock.Anything, byte(MPU6500Address), regWhoAmI, mock.Anything).
		Return([]byte{id}, nil).Once()
}

func expectBringUp(bus *MockRegisterBus) {
	for _, st := range bringUp {
		bus.On("WriteRegister", mock.Anything, byte(MPU6500Address), st.register, st.value).
			Return(nil).Once()
	}
}

func timeoutErr(op string, reg byte) error {
	return &imu.TransportError{Kind: imu.ErrTimeout, Op: op, Address: MPU6500Address, Register: reg, Err: imu.ErrTimeout}
}

func TestMPU6500_Configure_Sequence(t *testing.T) {
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus, WithSettleDelay(0))
	expectWhoAmI(bus, WhoAmIMPU6500Alt)
	expectBringUp(bus)

	err := sensor.Configure(context.Background())
	require.NoError(t, err)
	bus.AssertExpectations(t)

	expected := [][2]byte{
		{0x6B, 0x80},
		{0x68, 0x07},
		{0x6A, 0x01},
		{0x6B, 0x01},
		{0x1A, 0x04},
		{0x1B, 0x00},
		{0x1C, 0x00},
		{0x1D, 0x04},
		{0x19, 0x09},
	}
	require.Len(t, bus.Calls, len(expected)+1)
	assert.Equal(t, "ReadRegisters", bus.Calls[0].Method, "identity must be checked first")
	for i, want := range expected {
		call := bus.Calls[i+1]
		assert.Equal(t, "WriteRegister", call.Method)
		assert.Equal(t, want[0], call.Arguments.Get(2), "register of write %d", i)
		assert.Equal(t, want[1], call.Arguments.Get(3), "value of write %d", i)
	}
}

func TestMPU6500_Configure_Identity(t *testing.T) {
	tests := []struct {
		id     byte
		accept bool
	}{
		{0x68, true},
		{0x70, true},
		{0x00, false},
		{0xFF, false},
		{0x71, false},
		{0x69, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%#02x", tt.id), func(t *testing.T) {
			bus := new(MockRegisterBus)
			sensor := NewMPU6500(bus, WithSettleDelay(0))
			expectWhoAmI(bus, tt.id)
			if tt.accept {
				expectBringUp(bus)
			}

			err := sensor.Configure(context.Background())

			if tt.accept {
				assert.NoError(t, err)
			} else {
				var idErr *IdentityMismatchError
				require.ErrorAs(t, err, &idErr)
				assert.Equal(t, tt.id, idErr.Got)
				bus.AssertNotCalled(t, "WriteRegister", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			bus.AssertExpectations(t)
		})
	}
}

func TestMPU6500_Configure_IdentityReadError(t *testing.T) {
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus, WithSettleDelay(0))
	bus.On("ReadRegisters", mock.Anything, byte(MPU6500Address), regWhoAmI, mock.Anything).
		Return(nil, timeoutErr("read", regWhoAmI)).Once()

	err := sensor.Configure(context.Background())

	assert.ErrorIs(t, err, imu.ErrTimeout)
	var idErr *IdentityMismatchError
	assert.False(t, errors.As(err, &idErr))
	bus.AssertNotCalled(t, "WriteRegister", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMPU6500_Configure_FailFast(t *testing.T) {
	for failAt := range bringUp {
		st := bringUp[failAt]
		t.Run(st.step.String(), func(t *testing.T) {
			bus := new(MockRegisterBus)
			sensor := NewMPU6500(bus, WithSettleDelay(0))
			expectWhoAmI(bus, WhoAmIMPU6500)
			for i := 0; i < failAt; i++ {
				bus.On("WriteRegister", mock.Anything, byte(MPU6500Address), bringUp[i].register, bringUp[i].value).
					Return(nil).Once()
			}
			bus.On("WriteRegister", mock.Anything, byte(MPU6500Address), st.register, st.value).
				Return(timeoutErr("write", st.register)).Once()

			err := sensor.Configure(context.Background())

			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, st.step, cfgErr.Step)
			assert.ErrorIs(t, err, imu.ErrTimeout)
			assert.Contains(t, err.Error(), st.step.String())
			bus.AssertNumberOfCalls(t, "WriteRegister", failAt+1)
			bus.AssertExpectations(t)
		})
	}
}

func TestMPU6500_Configure_SettleDelay(t *testing.T) {
	delay := 5 * time.Millisecond
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus, WithSettleDelay(delay))
	expectWhoAmI(bus, WhoAmIMPU6500)
	expectBringUp(bus)

	start := time.Now()
	err := sensor.Configure(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	// one wait after the identity check and one after every write
	assert.GreaterOrEqual(t, elapsed, time.Duration(len(bringUp)+1)*delay)
}

func TestMPU6500_Configure_CancelledWhileSettling(t *testing.T) {
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus, WithSettleDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// no wait after the identity check, the reset step then waits until cancelled
	bus.On("ReadRegisters", mock.Anything, byte(MPU6500Address), regWhoAmI, mock.Anything).
		Return([]byte{WhoAmIMPU6500}, nil).Once()
	sensor.config.SettleDelay = 0
	bus.On("WriteRegister", mock.Anything, byte(MPU6500Address), regPwrMgmt1, pwrDeviceReset).
		Run(func(mock.Arguments) {
			sensor.config.SettleDelay = time.Hour
			cancel()
		}).
		Return(nil).Once()

	err := sensor.Configure(ctx)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, StepReset, cfgErr.Step)
	assert.ErrorIs(t, err, context.Canceled)
	bus.AssertNumberOfCalls(t, "WriteRegister", 1)
}

func TestMPU6500_CustomAddress(t *testing.T) {
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus, WithAddress(MPU6500AddressAlt))
	bus.On("ReadRegisters", mock.Anything, byte(MPU6500AddressAlt), regWhoAmI, mock.Anything).
		Return([]byte{WhoAmIMPU6500}, nil).Once()

	id, err := sensor.WhoAmI(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WhoAmIMPU6500, id)
	assert.Equal(t, byte(MPU6500AddressAlt), sensor.Address())
	bus.AssertExpectations(t)
}

func TestMPU6500_Reset(t *testing.T) {
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus, WithSettleDelay(0))
	bus.On("WriteRegister", mock.Anything, byte(MPU6500Address), regPwrMgmt1, pwrDeviceReset).
		Return(nil).Once()

	require.NoError(t, sensor.Reset(context.Background()))
	bus.AssertExpectations(t)
}

func TestMPU6500_ReadSample(t *testing.T) {
	tests := []struct {
		given    string
		expected RawSample
	}{
		{"400000000000", RawSample{X: 16384}},
		{"40000000c000", RawSample{X: 16384, Z: -16384}},
		{"7fff8000ffff", RawSample{X: 32767, Y: -32768, Z: -1}},
		{"0001fffe0100", RawSample{X: 1, Y: -2, Z: 256}},
	}
	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			data, err := hex.DecodeString(tt.given)
			require.NoError(t, err)
			bus := new(MockRegisterBus)
			sensor := NewMPU6500(bus)
			bus.On("ReadRegisters", mock.Anything, byte(MPU6500Address), regAccelXOutH,
				mock.MatchedBy(func(b []byte) bool { return len(b) == 6 })).
				Return(data, nil).Once()

			raw, err := sensor.ReadSample(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.expected, raw)
			bus.AssertExpectations(t)
		})
	}
}

func TestMPU6500_ReadSample_Error(t *testing.T) {
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus)
	bus.On("ReadRegisters", mock.Anything, byte(MPU6500Address), regAccelXOutH, mock.Anything).
		Return(nil, timeoutErr("read", regAccelXOutH)).Once()

	raw, err := sensor.ReadSample(context.Background())

	assert.ErrorIs(t, err, imu.ErrTimeout)
	assert.Equal(t, RawSample{}, raw)
	bus.AssertNumberOfCalls(t, "ReadRegisters", 1)
}

func TestMPU6500_Acceleration(t *testing.T) {
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus)
	bus.On("ReadRegisters", mock.Anything, byte(MPU6500Address), regAccelXOutH, mock.Anything).
		Return([]byte{0x40, 0x00, 0x00, 0x00, 0xC0, 0x00}, nil).Once()

	g, err := sensor.Acceleration(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 1.0, g.X, 1e-4)
	assert.InDelta(t, 0.0, g.Y, 1e-4)
	assert.InDelta(t, -1.0, g.Z, 1e-4)
}

func TestMPU6500_Registers(t *testing.T) {
	bus := new(MockRegisterBus)
	sensor := NewMPU6500(bus)
	bus.On("ReadRegisters", mock.Anything, byte(MPU6500Address), regSampleRateDiv, mock.Anything).
		Return([]byte{0x09, 0x04, 0x00, 0x00, 0x04}, nil).Once()
	bus.On("ReadRegisters", mock.Anything, byte(MPU6500Address), regUserCtrl, mock.Anything).
		Return([]byte{0x00, 0x01}, nil).Once()
	expectWhoAmI(bus, WhoAmIMPU6500)

	dump, err := sensor.Registers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RegisterDump{
		WhoAmI:        0x70,
		PwrMgmt1:      0x01,
		UserCtrl:      0x00,
		Config:        0x04,
		GyroConfig:    0x00,
		AccelConfig:   0x00,
		AccelConfig2:  0x04,
		SampleRateDiv: 0x09,
	}, dump)
	bus.AssertExpectations(t)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "reset", StepReset.String())
	assert.Equal(t, "sample rate config", StepSampleRateConfig.String())
	assert.Equal(t, "step(42)", Step(42).String())
}
