package accel

// MPU6500 register map (InvenSense RM-MPU-6500A)
const (
	regSampleRateDiv byte = 0x19
	regConfig        byte = 0x1A
	regGyroConfig    byte = 0x1B
	regAccelConfig   byte = 0x1C
	regAccelConfig2  byte = 0x1D
	regAccelXOutH    byte = 0x3B
	regUserCtrl      byte = 0x6A
	regPwrMgmt1      byte = 0x6B
	regWhoAmI        byte = 0x75

	// The filter reset step selects the device address as its register.
	// 0x68 happens to be SIGNAL_PATH_RESET on the MPU6500 map, and 0x07
	// resets the gyro, accel and temp paths there. Needs hardware validation
	// before the value is changed.
	regFilterReset byte = MPU6500Address
)

// Register values written during bring-up
const (
	pwrDeviceReset     byte = 1 << 7
	pwrClockAuto       byte = 0b001
	filterResetAll     byte = 0b00000111
	userSignalPathRst  byte = 1 << 0
	configDLPF         byte = 0b100
	gyroFullScale250   byte = 0x00
	accelFullScale2G   byte = 0x00
	accelConfig2DLPF   byte = 0b100
	sampleRateDivider9 byte = 9
)

// WHO_AM_I values of the two silicon revisions
const (
	WhoAmIMPU6500    byte = 0x70
	WhoAmIMPU6500Alt byte = 0x68
)

const (
	// MPU6500Address is the 7-bit address with AD0 low.
	MPU6500Address = 0x68
	// MPU6500AddressAlt is the 7-bit address with AD0 high.
	MPU6500AddressAlt = 0x69
)

// LSB per g at the ±2g full scale range
const countsPerG = 16384.0
