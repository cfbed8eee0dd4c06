//go:build linux

package mcxn947

/*
	gpio.go: board.GPIOPin on top of a FlexIO timer channel. Setting a level
	parks the timer at a constant output; reading a level probes the pin
	state register against the configured polarity.
*/

import (
	"context"

	"go.viam.com/rdk/components/board"
	rdkutils "go.viam.com/rdk/utils"

	"flexio-pwm/flexio"
	flexioutils "flexio-pwm/utils"
)

type flexioPin struct {
	b            *flexioBoard
	name         string
	pinChannel   uint8
	timerChannel uint8

	// freqHz is guarded by b.mu.
	freqHz uint32
}

var _ board.GPIOPin = (*flexioPin)(nil)

// Set parks the output at a constant high or low level, stopping any
// running waveform.
func (gp *flexioPin) Set(ctx context.Context, high bool, extra map[string]interface{}) error {
	return gp.b.periph.SetOutputIdle(gp.timerChannel, gp.pinChannel, high)
}

// Get reads the pin's probed logic level. The raw pad state is folded with
// the configured polarity, so a parked output reads low at either idle
// level.
func (gp *flexioPin) Get(ctx context.Context, extra map[string]interface{}) (bool, error) {
	level, err := gp.b.periph.OutputState(gp.timerChannel, gp.pinChannel)
	if err != nil {
		return false, err
	}
	return level == flexio.LevelHigh, nil
}

// PWM returns the duty cycle last programmed on this pin's timer channel.
func (gp *flexioPin) PWM(ctx context.Context, extra map[string]interface{}) (float64, error) {
	dutyPct, err := gp.b.periph.DutyCyclePct(gp.timerChannel)
	if err != nil {
		return 0, err
	}
	return float64(dutyPct) / 100, nil
}

// SetPWM programs the pin's timer channel with the given duty cycle at the
// pin's current PWM frequency.
func (gp *flexioPin) SetPWM(ctx context.Context, dutyCyclePct float64, extra map[string]interface{}) error {
	gp.b.mu.Lock()
	freqHz := gp.freqHz
	gp.b.mu.Unlock()

	dutyPct := rdkutils.ScaleByPct(100, dutyCyclePct)
	return gp.b.periph.ConfigurePWM(gp.timerChannel, gp.pinChannel, freqHz, uint32(dutyPct))
}

// PWMFreq returns the pin's PWM frequency.
func (gp *flexioPin) PWMFreq(ctx context.Context, extra map[string]interface{}) (uint, error) {
	gp.b.mu.Lock()
	defer gp.b.mu.Unlock()
	return uint(gp.freqHz), nil
}

// SetPWMFreq sets the pin's PWM frequency. 0 selects the default. A running
// waveform is reprogrammed at the new frequency with its current duty cycle.
func (gp *flexioPin) SetPWMFreq(ctx context.Context, freqHz uint, extra map[string]interface{}) error {
	if freqHz == 0 {
		freqHz = flexioutils.DefaultPWMFreqHz
	}
	if err := gp.b.periph.ValidateFrequency(uint32(freqHz)); err != nil {
		return err
	}

	dutyPct, err := gp.b.periph.DutyCyclePct(gp.timerChannel)
	if err != nil {
		return err
	}
	// Only a free-running waveform depends on the period; parked outputs
	// pick the new frequency up on the next SetPWM.
	if dutyPct > 0 && dutyPct < 100 {
		if err := gp.b.periph.ConfigurePWM(gp.timerChannel, gp.pinChannel, uint32(freqHz), dutyPct); err != nil {
			return err
		}
	}

	gp.b.mu.Lock()
	gp.freqHz = uint32(freqHz)
	gp.b.mu.Unlock()
	return nil
}
