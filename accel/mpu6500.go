package accel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/i2c"
)

// Step names one write of the bring-up sequence.
type Step int

const (
	StepReset Step = iota
	StepFilterReset
	StepSignalPathReset
	StepClockConfig
	StepSamplingConfig
	StepGyroConfig
	StepAccelConfig
	StepLPFConfig
	StepSampleRateConfig
)

var stepNames = [...]string{
	StepReset:            "reset",
	StepFilterReset:      "filter reset",
	StepSignalPathReset:  "signal path reset",
	StepClockConfig:      "clock config",
	StepSamplingConfig:   "sampling config",
	StepGyroConfig:       "gyro config",
	StepAccelConfig:      "accel config",
	StepLPFConfig:        "lpf config",
	StepSampleRateConfig: "sample rate config",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

type initStep struct {
	step     Step
	register byte
	value    byte
}

// bringUp is written in order after the identity check, each write followed
// by the settle delay.
var bringUp = []initStep{
	{StepReset, regPwrMgmt1, pwrDeviceReset},
	{StepFilterReset, regFilterReset, filterResetAll},
	{StepSignalPathReset, regUserCtrl, userSignalPathRst},
	{StepClockConfig, regPwrMgmt1, pwrClockAuto},
	{StepSamplingConfig, regConfig, configDLPF},
	{StepGyroConfig, regGyroConfig, gyroFullScale250},
	{StepAccelConfig, regAccelConfig, accelFullScale2G},
	{StepLPFConfig, regAccelConfig2, accelConfig2DLPF},
	{StepSampleRateConfig, regSampleRateDiv, sampleRateDivider9},
}

// IdentityMismatchError means WHO_AM_I did not name a known MPU6500 revision;
// the sensor is absent or defective.
type IdentityMismatchError struct {
	Got byte
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("mpu6500: unexpected WHO_AM_I %#02x (want %#02x or %#02x)", e.Got, WhoAmIMPU6500Alt, WhoAmIMPU6500)
}

// ConfigurationError attributes a bring-up failure to its step.
type ConfigurationError struct {
	Step Step
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("mpu6500: %s failed: %v", e.Step, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

const DefaultSettleDelay = 100 * time.Millisecond

type MPU6500Opts struct {
	Address     byte
	SettleDelay time.Duration
}

type MPU6500Opt func(*MPU6500Opts)

func WithAddress(address byte) MPU6500Opt {
	return func(o *MPU6500Opts) {
		o.Address = address
	}
}

// WithSettleDelay overrides the wait after every configuration write.
func WithSettleDelay(delay time.Duration) MPU6500Opt {
	return func(o *MPU6500Opts) {
		o.SettleDelay = delay
	}
}

// MPU6500 represents an InvenSense MPU6500 accelerometer/gyroscope. Only the
// accelerometer is read. The driver keeps no state besides the bus; all
// configuration lives in the sensor registers.
//
// Typical usage:
//
//	s := NewMPU6500(bus)
//	err := s.Configure(ctx)
//	raw, err := s.ReadSample(ctx)
//	g := Convert(raw)
type MPU6500 struct {
	mx        sync.Mutex
	config    MPU6500Opts
	transport imu.RegisterBus
}

func NewMPU6500(transport imu.RegisterBus, opts ...MPU6500Opt) *MPU6500 {
	config := MPU6500Opts{
		Address:     MPU6500Address,
		SettleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &MPU6500{config: config, transport: transport}
}

// Init installs the bus described by cfg and configures the sensor on it.
// The bus is closed again when configuration fails.
func Init(ctx context.Context, cfg i2c.BusConfig, open i2c.Opener, opts ...MPU6500Opt) (*MPU6500, *i2c.Bus, error) {
	bus, err := i2c.Install(cfg, open)
	if err != nil {
		return nil, nil, fmt.Errorf("mpu6500: bus install failed: %w", err)
	}
	slog.Debug("i2c bus ready", "bus", cfg.Index)
	s := NewMPU6500(bus, opts...)
	err = s.Configure(ctx)
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	return s, bus, nil
}

func (s *MPU6500) Address() byte {
	return s.config.Address
}

// WhoAmI reads the identity register.
func (s *MPU6500) WhoAmI(ctx context.Context) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.whoAmI(ctx)
}

func (s *MPU6500) whoAmI(ctx context.Context) (byte, error) {
	buf := []byte{0x00}
	err := s.transport.ReadRegisters(ctx, s.config.Address, regWhoAmI, buf)
	if err != nil {
		return 0, fmt.Errorf("mpu6500: could not read WHO_AM_I: %w", err)
	}
	return buf[0], nil
}

// Configure checks the sensor identity and runs the bring-up sequence. It
// stops at the first failing step.
func (s *MPU6500) Configure(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	id, err := s.whoAmI(ctx)
	if err != nil {
		return err
	}
	if id != WhoAmIMPU6500 && id != WhoAmIMPU6500Alt {
		return &IdentityMismatchError{Got: id}
	}
	slog.Info("mpu6500 detected", "who_am_i", fmt.Sprintf("%#02x", id), "addr", fmt.Sprintf("%#02x", s.config.Address))
	err = s.settle(ctx)
	if err != nil {
		return fmt.Errorf("mpu6500: waiting after identity check: %w", err)
	}
	for _, st := range bringUp {
		err = s.apply(ctx, st)
		if err != nil {
			return err
		}
	}
	slog.Debug("mpu6500 configured")
	return nil
}

// Reset issues a device reset only. Configure must run again afterwards.
func (s *MPU6500) Reset(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.apply(ctx, bringUp[0])
}

func (s *MPU6500) apply(ctx context.Context, st initStep) error {
	slog.Debug("mpu6500 write", "step", st.step.String(), "reg", fmt.Sprintf("%#02x", st.register), "value", fmt.Sprintf("%#08b", st.value))
	err := s.transport.WriteRegister(ctx, s.config.Address, st.register, st.value)
	if err != nil {
		return &ConfigurationError{Step: st.step, Err: err}
	}
	err = s.settle(ctx)
	if err != nil {
		return &ConfigurationError{Step: st.step, Err: err}
	}
	return nil
}

// settle suspends the caller for the settle delay; the next write may be
// ignored by the sensor otherwise.
func (s *MPU6500) settle(ctx context.Context) error {
	if s.config.SettleDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.config.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadSample reads the three accelerometer axes in one transaction.
func (s *MPU6500) ReadSample(ctx context.Context) (RawSample, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	buf := make([]byte, 6)
	err := s.transport.ReadRegisters(ctx, s.config.Address, regAccelXOutH, buf)
	if err != nil {
		return RawSample{}, fmt.Errorf("mpu6500: read sample failed: %w", err)
	}
	return decodeSample(buf), nil
}

// Acceleration reads a sample and converts it to g.
func (s *MPU6500) Acceleration(ctx context.Context) (Sample, error) {
	raw, err := s.ReadSample(ctx)
	if err != nil {
		return Sample{}, err
	}
	return Convert(raw), nil
}

// RegisterDump is a snapshot of the registers touched by Configure.
type RegisterDump struct {
	WhoAmI        byte `yaml:"who_am_i"`
	PwrMgmt1      byte `yaml:"pwr_mgmt_1"`
	UserCtrl      byte `yaml:"user_ctrl"`
	Config        byte `yaml:"config"`
	GyroConfig    byte `yaml:"gyro_config"`
	AccelConfig   byte `yaml:"accel_config"`
	AccelConfig2  byte `yaml:"accel_config2"`
	SampleRateDiv byte `yaml:"smplrt_div"`
}

func (s *MPU6500) Registers(ctx context.Context) (RegisterDump, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	var dump RegisterDump
	// SMPLRT_DIV through ACCEL_CONFIG2 are consecutive
	cfg := make([]byte, 5)
	err := s.transport.ReadRegisters(ctx, s.config.Address, regSampleRateDiv, cfg)
	if err != nil {
		return dump, fmt.Errorf("mpu6500: could not read config registers: %w", err)
	}
	dump.SampleRateDiv, dump.Config, dump.GyroConfig, dump.AccelConfig, dump.AccelConfig2 = cfg[0], cfg[1], cfg[2], cfg[3], cfg[4]
	ctrl := make([]byte, 2)
	err = s.transport.ReadRegisters(ctx, s.config.Address, regUserCtrl, ctrl)
	if err != nil {
		return dump, fmt.Errorf("mpu6500: could not read control registers: %w", err)
	}
	dump.UserCtrl, dump.PwrMgmt1 = ctrl[0], ctrl[1]
	dump.WhoAmI, err = s.whoAmI(ctx)
	if err != nil {
		return dump, err
	}
	return dump, nil
}
