//go:build linux

package flexio

/*
	timer.go: The timer channel configuration value object and the register
	write sequencing that commits it to hardware. Field layouts follow the
	FlexIO chapter of the MCXN947 reference manual.
*/

import "github.com/pkg/errors"

// TimerTriggerSource selects between an external trigger and an internal one
// (shifter flags, pin inputs, other timers).
type TimerTriggerSource uint32

const (
	TimerTriggerSourceExternal TimerTriggerSource = iota
	TimerTriggerSourceInternal
)

// TimerTriggerPolarity sets the active level of the trigger input.
type TimerTriggerPolarity uint32

const (
	TimerTriggerPolarityActiveHigh TimerTriggerPolarity = iota
	TimerTriggerPolarityActiveLow
)

// TimerPinConfig selects how the timer drives its pin.
type TimerPinConfig uint32

const (
	TimerPinConfigOutputDisabled TimerPinConfig = iota
	TimerPinConfigOpenDrain
	TimerPinConfigBidirectionOutputData
	TimerPinConfigOutput
)

// PinPolarity sets which electrical level counts as active for a pin.
type PinPolarity uint32

const (
	PinActiveHigh PinPolarity = iota
	PinActiveLow
)

// TimerMode selects the timer's operating mode.
type TimerMode uint32

const (
	TimerModeDisabled TimerMode = iota
	TimerModeDual8BitBaudBit
	TimerModeDual8BitPWM
	TimerModeSingle16Bit
)

// TimerOutput sets the initial timer output level and its reset behavior.
type TimerOutput uint32

const (
	TimerOutputOneNotAffectedByReset TimerOutput = iota
	TimerOutputZeroNotAffectedByReset
	TimerOutputOneAffectedByReset
	TimerOutputZeroAffectedByReset
)

// TimerDecrement selects the timer's decrement clock and shift clock source.
type TimerDecrement uint32

const (
	TimerDecSrcOnFlexIOClockShiftTimerOutput TimerDecrement = iota
	TimerDecSrcOnTriggerInputShiftTimerOutput
	TimerDecSrcOnPinInputShiftPinInput
	TimerDecSrcOnTriggerInputShiftTriggerInput
)

// TimerDisableCondition selects when the timer stops counting.
type TimerDisableCondition uint32

const (
	TimerDisableNever TimerDisableCondition = iota
	TimerDisableOnPreTimerDisable
	TimerDisableOnTimerCompare
	TimerDisableOnTimerCompareTriggerLow
	TimerDisableOnPinBothEdge
	TimerDisableOnTriggerFallingEdge
)

// TimerEnableCondition selects when the timer starts counting.
type TimerEnableCondition uint32

const (
	TimerEnableAlways TimerEnableCondition = iota
	TimerEnableOnPrevTimerEnable
	TimerEnableOnTriggerHigh
	TimerEnableOnTriggerHighPinHigh
	TimerEnableOnPinRisingEdge
)

// TimerResetCondition selects when the timer counter resets.
type TimerResetCondition uint32

const (
	TimerResetNever TimerResetCondition = iota
	_
	TimerResetOnTimerPinEqualToTimerOutput
	TimerResetOnTimerTriggerEqualToTimerOutput
	TimerResetOnTimerPinRisingEdge
)

// TimerStartBit enables a start bit at the beginning of each word.
type TimerStartBit uint32

const (
	TimerStartBitDisabled TimerStartBit = iota
	TimerStartBitEnabled
)

// TimerStopBit enables a stop bit on compare or disable.
type TimerStopBit uint32

const (
	TimerStopBitDisabled TimerStopBit = iota
	TimerStopBitEnableOnTimerCompare
	TimerStopBitEnableOnTimerDisable
	TimerStopBitEnableOnTimerCompareDisable
)

// TriggerSelectShifterStatus returns the trigger select value for shifter n's
// status flag.
func TriggerSelectShifterStatus(n uint8) uint32 {
	return uint32(4*n + 1)
}

// TimerConfig describes one timer channel's full behavior. It is a value
// object: build one, hand it to SetTimerConfig, forget it.
type TimerConfig struct {
	TriggerSelect   uint32
	TriggerPolarity TimerTriggerPolarity
	TriggerSource   TimerTriggerSource

	PinConfig   TimerPinConfig
	PinSelect   uint8
	PinPolarity PinPolarity

	TimerMode      TimerMode
	TimerOutput    TimerOutput
	TimerDecrement TimerDecrement
	TimerDisable   TimerDisableCondition
	TimerEnable    TimerEnableCondition
	TimerReset     TimerResetCondition
	TimerStart     TimerStartBit
	TimerStop      TimerStopBit

	// TimerCompare packs the low-period and high-period cycle counts as
	// (lowCycles << 8) | highCycles in dual 8-bit PWM mode.
	TimerCompare uint16
}

// controlWord packs the TIMCTL register layout.
func (c TimerConfig) controlWord() uint32 {
	return (c.TriggerSelect&0x3f)<<24 |
		uint32(c.TriggerPolarity&0x1)<<23 |
		uint32(c.TriggerSource&0x1)<<22 |
		uint32(c.PinConfig&0x3)<<16 |
		uint32(c.PinSelect&0x1f)<<8 |
		uint32(c.PinPolarity&0x1)<<7 |
		uint32(c.TimerMode&0x7)
}

// configWord packs the TIMCFG register layout.
func (c TimerConfig) configWord() uint32 {
	return uint32(c.TimerOutput&0x3)<<24 |
		uint32(c.TimerDecrement&0x7)<<20 |
		uint32(c.TimerReset&0x7)<<16 |
		uint32(c.TimerDisable&0x7)<<12 |
		uint32(c.TimerEnable&0x7)<<8 |
		uint32(c.TimerStop&0x3)<<4 |
		uint32(c.TimerStart&0x1)<<1
}

// SetTimerConfig commits the given configuration to a timer channel. The
// control word is written last so the mode change takes effect only once the
// compare and configuration registers hold their final values.
func (p *Peripheral) SetTimerConfig(timerChannel uint8, cfg TimerConfig) error {
	if timerChannel >= TimerChannelCount {
		return errors.Wrapf(ErrChannelOutOfRange, "timer channel %d, have %d channels",
			timerChannel, TimerChannelCount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeTimerConfig(timerChannel, cfg)
	return nil
}

// writeTimerConfig is the unlocked write path shared by the PWM operations.
func (p *Peripheral) writeTimerConfig(timerChannel uint8, cfg TimerConfig) {
	p.regs.write32(timerOffset(regTimCfg, timerChannel), cfg.configWord())
	p.regs.write32(timerOffset(regTimCmp, timerChannel), uint32(cfg.TimerCompare))
	p.regs.write32(timerOffset(regTimCtl, timerChannel), cfg.controlWord())
}

// TimerRegisters reads back a channel's control, configuration and compare
// registers, mostly useful for debugging and tests.
func (p *Peripheral) TimerRegisters(timerChannel uint8) (ctl, cfg, cmp uint32, err error) {
	if timerChannel >= TimerChannelCount {
		return 0, 0, 0, errors.Wrapf(ErrChannelOutOfRange, "timer channel %d, have %d channels",
			timerChannel, TimerChannelCount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ctl = p.regs.read32(timerOffset(regTimCtl, timerChannel))
	cfg = p.regs.read32(timerOffset(regTimCfg, timerChannel))
	cmp = p.regs.read32(timerOffset(regTimCmp, timerChannel))
	return ctl, cfg, cmp, nil
}
