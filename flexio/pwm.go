//go:build linux

package flexio

/*
	pwm.go: PWM waveform synthesis on a FlexIO timer channel.

	A timer channel in dual 8-bit PWM mode free-runs from two packed 8-bit
	compare values, generating both waveform edges with no software in the
	loop. This file derives those compare values from a requested frequency
	and duty cycle, handles the 0% and 100% boundary cases by parking the
	timer with the right pin polarity, and tracks the last programmed duty
	per channel.
*/

import (
	"sync"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

// Typed failures of the PWM operations. Use errors.Is to classify.
var (
	// ErrInvalidDutyCycle is returned for a duty cycle outside [0, 100].
	// No register is written in that case.
	ErrInvalidDutyCycle = errors.New("duty cycle out of range [0, 100]")
	// ErrFrequencyOutOfRange is returned when the requested PWM frequency
	// cannot be generated from the FlexIO functional clock.
	ErrFrequencyOutOfRange = errors.New("pwm frequency out of range for the flexio clock")
	// ErrChannelOutOfRange is returned for a timer channel index beyond the
	// instance's channel count.
	ErrChannelOutOfRange = errors.New("flexio timer channel out of range")
	// ErrPinOutOfRange is returned for a data pin beyond PINSEL's reach.
	ErrPinOutOfRange = errors.New("flexio data pin out of range")
	// ErrPinStateUnsupported is returned by OutputState on FlexIO variants
	// without a pin status register.
	ErrPinStateUnsupported = errors.New("flexio variant does not report pin state")
)

// Level is the probed logic level of a PWM output.
type Level uint8

const (
	LevelLow Level = iota
	LevelHigh
)

func (l Level) String() string {
	if l == LevelHigh {
		return "high"
	}
	return "low"
}

// Default peripheral parameters for the FRDM-MCXN947: FLEXIO0's base
// address, and its functional clock after the demo clock tree attaches
// FRO_HF (48 MHz) divided by 4.
const (
	DefaultDevMemPath       = "/dev/mem"
	DefaultBaseAddress      = 0x40105000
	DefaultClockFrequencyHz = 48_000_000 / 4
)

// Config describes how to reach one FlexIO instance.
type Config struct {
	// DevMemPath is the device memory file to map. Tests point this at a
	// plain zero-filled file.
	DevMemPath string
	// BaseAddress is the physical address of the FlexIO register block.
	BaseAddress int64
	// ClockFrequencyHz is the functional clock feeding the timers. The
	// clock tree owns this value; the driver only reads it.
	ClockFrequencyHz uint32
	// HasPinStatus reports whether this FlexIO variant implements the PIN
	// status register. Without it OutputState is unavailable.
	HasPinStatus bool
}

// Peripheral is one mapped FlexIO instance. All methods are safe for
// concurrent use; the register write sequences inside each operation are
// atomic with respect to each other.
type Peripheral struct {
	regs         *registerBlock
	clockHz      uint32
	hasPinStatus bool
	logger       logging.Logger

	mu sync.Mutex
	// Last programmed duty percentage per timer channel. Reset to zero when
	// a channel is parked idle.
	duty [TimerChannelCount]uint32
}

// Open maps the FlexIO instance described by cfg, software-resets it and
// enables it. Zero-valued config fields fall back to the MCXN947 defaults.
func Open(cfg Config, logger logging.Logger) (*Peripheral, error) {
	if cfg.DevMemPath == "" {
		cfg.DevMemPath = DefaultDevMemPath
	}
	if cfg.BaseAddress == 0 && cfg.DevMemPath == DefaultDevMemPath {
		cfg.BaseAddress = DefaultBaseAddress
	}
	if cfg.ClockFrequencyHz == 0 {
		cfg.ClockFrequencyHz = DefaultClockFrequencyHz
	}

	regs, err := mapRegisters(cfg.DevMemPath, cfg.BaseAddress)
	if err != nil {
		return nil, err
	}

	p := &Peripheral{
		regs:         regs,
		clockHz:      cfg.ClockFrequencyHz,
		hasPinStatus: cfg.HasPinStatus,
		logger:       logger,
	}

	verID := regs.read32(regVerID)
	timerCount := (regs.read32(regParam) >> 8) & 0xff
	logger.Debugf("flexio mapped at %#x, version %#x, clock %d Hz", cfg.BaseAddress, verID, cfg.ClockFrequencyHz)
	if timerCount != 0 && timerCount != TimerChannelCount {
		logger.Warnf("flexio instance reports %d timer channels, driver assumes %d", timerCount, TimerChannelCount)
	}

	regs.write32(regCtrl, ctrlSwRst)
	regs.write32(regCtrl, 0)
	regs.write32(regCtrl, ctrlFlexEn)

	return p, nil
}

// Close unmaps the register block. The peripheral keeps whatever waveform it
// was last programmed with.
func (p *Peripheral) Close() error {
	return p.regs.close()
}

// FrequencyBounds returns the exclusive PWM frequency limits derivable from
// the functional clock: the timer counts at most 512 and at least 2 clock
// cycles per period.
func (p *Peripheral) FrequencyBounds() (minHz, maxHz uint32) {
	return p.clockHz / 512, p.clockHz / 2
}

// ValidateFrequency checks a requested PWM frequency against FrequencyBounds.
func (p *Peripheral) ValidateFrequency(freqHz uint32) error {
	minHz, maxHz := p.FrequencyBounds()
	if freqHz <= minHz || freqHz >= maxHz {
		return errors.Wrapf(ErrFrequencyOutOfRange, "%d Hz not within (%d, %d)", freqHz, minHz, maxHz)
	}
	return nil
}

// pwmTimerTemplate is the timer setup shared by every PWM operation: output
// pin driven, internal trigger from shifter 0's status flag, decrement on
// the FlexIO clock, free-running. Mode and polarity are filled in per call.
func pwmTimerTemplate(outputPin uint8) TimerConfig {
	return TimerConfig{
		TriggerSelect:   TriggerSelectShifterStatus(0),
		TriggerSource:   TimerTriggerSourceInternal,
		TriggerPolarity: TimerTriggerPolarityActiveLow,
		PinConfig:       TimerPinConfigOutput,
		PinSelect:       outputPin,
		PinPolarity:     PinActiveHigh,
		TimerMode:       TimerModeDisabled,
		TimerOutput:     TimerOutputOneNotAffectedByReset,
		TimerDecrement:  TimerDecSrcOnFlexIOClockShiftTimerOutput,
		TimerDisable:    TimerDisableNever,
		TimerEnable:     TimerEnableAlways,
		TimerReset:      TimerResetNever,
		TimerStart:      TimerStartBitDisabled,
		TimerStop:       TimerStopBitDisabled,
	}
}

func (p *Peripheral) validateChannelPin(timerChannel, outputPin uint8) error {
	if timerChannel >= TimerChannelCount {
		return errors.Wrapf(ErrChannelOutOfRange, "timer channel %d, have %d channels",
			timerChannel, TimerChannelCount)
	}
	if outputPin >= PinCount {
		return errors.Wrapf(ErrPinOutOfRange, "pin %d, have %d pins", outputPin, PinCount)
	}
	return nil
}

// ConfigurePWM programs a timer channel to generate a PWM waveform of the
// given frequency and integer duty percentage on the given data pin.
//
// The period in clock cycles is the round-half-up quotient of the clock by
// the frequency; the high time truncates period*duty/100; the low time gives
// back two cycles of pipeline overhead inherent to dual 8-bit PWM mode. Duty
// cycles of exactly 0 or 100 need no toggling, so the timer is left disabled
// and the constant level comes from pin polarity alone.
//
// The call is idempotent: identical arguments reproduce identical register
// state. On any validation error nothing is written.
func (p *Peripheral) ConfigurePWM(timerChannel, outputPin uint8, freqHz, dutyPct uint32) error {
	if err := p.validateChannelPin(timerChannel, outputPin); err != nil {
		return err
	}
	if dutyPct > 100 {
		return errors.Wrapf(ErrInvalidDutyCycle, "got %d%%", dutyPct)
	}
	if err := p.ValidateFrequency(freqHz); err != nil {
		return err
	}

	// round(clock/freq) via (2*clock/freq + 1)/2
	period := (uint64(p.clockHz)*2/uint64(freqHz) + 1) / 2
	highCycles := period * uint64(dutyPct) / 100
	lowCycles := period - highCycles - 2

	cfg := pwmTimerTemplate(outputPin)
	cfg.TimerCompare = uint16(lowCycles<<8 | highCycles)

	switch {
	case dutyPct > 0 && dutyPct < 100:
		cfg.TimerMode = TimerModeDual8BitPWM
	case dutyPct == 100:
		// Constant high: invert polarity so the inactive timer output pins
		// the pad at the active-reading level.
		cfg.PinPolarity = PinActiveLow
	default: // dutyPct == 0, constant low
		cfg.PinPolarity = PinActiveHigh
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeTimerConfig(timerChannel, cfg)
	p.duty[timerChannel] = dutyPct
	return nil
}

// SetOutputIdle parks a timer channel's output at a constant level: high
// when idleHigh, low otherwise. The compare register is cleared before the
// polarity change so stale compare bits cannot glitch the pin, and the duty
// record for the channel drops to zero.
func (p *Peripheral) SetOutputIdle(timerChannel, outputPin uint8, idleHigh bool) error {
	if err := p.validateChannelPin(timerChannel, outputPin); err != nil {
		return err
	}

	cfg := pwmTimerTemplate(outputPin)
	cfg.TimerCompare = 0
	if idleHigh {
		cfg.PinPolarity = PinActiveLow
	} else {
		cfg.PinPolarity = PinActiveHigh
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs.write32(timerOffset(regTimCmp, timerChannel), 0)
	p.writeTimerConfig(timerChannel, cfg)
	p.duty[timerChannel] = 0
	return nil
}

// OutputState probes the live logic level of a PWM output: the raw pin state
// bit folded with the channel's configured polarity, so an idle output reads
// low regardless of which electrical level it idles at. Pure read.
func (p *Peripheral) OutputState(timerChannel, outputPin uint8) (Level, error) {
	if !p.hasPinStatus {
		return LevelLow, ErrPinStateUnsupported
	}
	if err := p.validateChannelPin(timerChannel, outputPin); err != nil {
		return LevelLow, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	pinBit := (p.regs.read32(regPin) >> uint32(outputPin)) & 1
	polarityBit := (p.regs.read32(timerOffset(regTimCtl, timerChannel)) >> 7) & 1
	if pinBit^polarityBit != 0 {
		return LevelHigh, nil
	}
	return LevelLow, nil
}

// DutyCyclePct returns the last duty percentage programmed on a channel,
// zero if the channel is idle or was never configured.
func (p *Peripheral) DutyCyclePct(timerChannel uint8) (uint32, error) {
	if timerChannel >= TimerChannelCount {
		return 0, errors.Wrapf(ErrChannelOutOfRange, "timer channel %d, have %d channels",
			timerChannel, TimerChannelCount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty[timerChannel], nil
}
