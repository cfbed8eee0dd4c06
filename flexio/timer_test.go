//go:build linux

package flexio

import (
	"errors"
	"testing"

	"go.viam.com/test"
)

func TestSetTimerConfig(t *testing.T) {
	t.Run("register packing", func(t *testing.T) {
		p := newTestPeripheral(t, 4_800_000, true)

		cfg := TimerConfig{
			TriggerSelect:   TriggerSelectShifterStatus(1),
			TriggerPolarity: TimerTriggerPolarityActiveLow,
			TriggerSource:   TimerTriggerSourceInternal,
			PinConfig:       TimerPinConfigOutput,
			PinSelect:       9,
			PinPolarity:     PinActiveLow,
			TimerMode:       TimerModeSingle16Bit,
			TimerOutput:     TimerOutputZeroNotAffectedByReset,
			TimerDecrement:  TimerDecSrcOnPinInputShiftPinInput,
			TimerDisable:    TimerDisableOnTimerCompare,
			TimerEnable:     TimerEnableOnTriggerHigh,
			TimerReset:      TimerResetOnTimerPinRisingEdge,
			TimerStart:      TimerStartBitEnabled,
			TimerStop:       TimerStopBitEnableOnTimerDisable,
			TimerCompare:    0xbeef,
		}
		err := p.SetTimerConfig(6, cfg)
		test.That(t, err, test.ShouldBeNil)

		ctl, cfgWord, cmp, err := p.TimerRegisters(6)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ctl, test.ShouldEqual, uint32(0x05c30983))
		test.That(t, cfgWord, test.ShouldEqual, uint32(0x01242222))
		test.That(t, cmp, test.ShouldEqual, uint32(0xbeef))
	})

	t.Run("channels are independent", func(t *testing.T) {
		p := newTestPeripheral(t, 4_800_000, true)
		err := p.SetTimerConfig(0, TimerConfig{TimerCompare: 0x11})
		test.That(t, err, test.ShouldBeNil)
		err = p.SetTimerConfig(7, TimerConfig{TimerCompare: 0x77})
		test.That(t, err, test.ShouldBeNil)

		_, _, cmp0, err := p.TimerRegisters(0)
		test.That(t, err, test.ShouldBeNil)
		_, _, cmp7, err := p.TimerRegisters(7)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cmp0, test.ShouldEqual, uint32(0x11))
		test.That(t, cmp7, test.ShouldEqual, uint32(0x77))
	})

	t.Run("bounds", func(t *testing.T) {
		p := newTestPeripheral(t, 4_800_000, true)
		err := p.SetTimerConfig(TimerChannelCount, TimerConfig{})
		test.That(t, errors.Is(err, ErrChannelOutOfRange), test.ShouldBeTrue)
		_, _, _, err = p.TimerRegisters(TimerChannelCount)
		test.That(t, errors.Is(err, ErrChannelOutOfRange), test.ShouldBeTrue)
	})
}

func TestLevelString(t *testing.T) {
	test.That(t, LevelHigh.String(), test.ShouldEqual, "high")
	test.That(t, LevelLow.String(), test.ShouldEqual, "low")
}
