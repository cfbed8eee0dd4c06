// Package flexioutils contains the configuration types shared by the FlexIO
// board models.
package flexioutils

import (
	"fmt"

	"github.com/pkg/errors"
	"go.viam.com/rdk/resource"
)

// FlexioFamily is the model family for the FlexIO PWM module.
var FlexioFamily = resource.NewModelFamily("mcx", "flexio")

// DefaultPWMFreqHz is the PWM frequency used when a pin does not configure
// one. It matches the vendor demonstration frequency for this peripheral.
const DefaultPWMFreqHz = 100_000

// PinConfig binds one FlexIO data pin to one timer channel as a PWM output.
type PinConfig struct {
	Name         string `json:"name"`
	Pin          string `json:"pin"`           // FlexIO data pin label, e.g. "D0"
	TimerChannel int    `json:"timer_channel"` // timer channel driving the pin
	PWMFreqHz    uint   `json:"pwm_frequency_hz,omitempty"`
	// StartDutyPct programs the pin once at startup with this duty
	// percentage. When unset the pin starts parked at its idle level.
	StartDutyPct *int `json:"starting_duty_pct,omitempty"`
	// IdleHigh selects the level a parked output holds.
	IdleHigh bool `json:"idle_high,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *PinConfig) Validate(path string) error {
	if config.Name == "" {
		return resource.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Pin == "" {
		return resource.NewConfigValidationFieldRequiredError(path, "pin")
	}
	if _, ok := FlexioPinFromHardwareLabel(config.Pin); !ok {
		return resource.NewConfigValidationError(path,
			errors.Errorf("unknown flexio data pin %q", config.Pin))
	}
	if config.TimerChannel < 0 || config.TimerChannel >= TimerChannelCount {
		return resource.NewConfigValidationError(path,
			errors.Errorf("timer_channel %d out of range [0, %d)", config.TimerChannel, TimerChannelCount))
	}
	if config.StartDutyPct != nil && (*config.StartDutyPct < 0 || *config.StartDutyPct > 100) {
		return resource.NewConfigValidationError(path,
			errors.Errorf("starting_duty_pct %d out of range [0, 100]", *config.StartDutyPct))
	}
	return nil
}

// TimerChannelCount mirrors the channel count of the targeted FlexIO
// instances; kept here so config validation does not depend on the driver.
const TimerChannelCount = 8

// A Config describes the configuration of a FlexIO board and its PWM pins.
type Config struct {
	Pins []PinConfig `json:"pins,omitempty"`

	// ClockFrequencyHz is the FlexIO functional clock as attached by the
	// boot clock tree. Defaults to the demo clocking (FRO_HF/4).
	ClockFrequencyHz uint32 `json:"clock_frequency_hz,omitempty"`
	// DevMemPath and BaseAddress override where the register block is
	// mapped from, mainly for bench setups and tests.
	DevMemPath  string `json:"dev_mem_path,omitempty"`
	BaseAddress int64  `json:"base_address,omitempty"`
}

// Validate ensures all parts of the config are valid. Each timer channel may
// drive at most one output, and each pin may be claimed once.
func (conf *Config) Validate(path string) ([]string, []string, error) {
	channelUsed := map[int]string{}
	pinUsed := map[string]string{}
	for idx, c := range conf.Pins {
		if err := c.Validate(fmt.Sprintf("%s.%s.%d", path, "pins", idx)); err != nil {
			return nil, nil, err
		}
		if prev, ok := channelUsed[c.TimerChannel]; ok {
			return nil, nil, resource.NewConfigValidationError(path,
				errors.Errorf("timer_channel %d claimed by both %q and %q", c.TimerChannel, prev, c.Name))
		}
		channelUsed[c.TimerChannel] = c.Name
		if prev, ok := pinUsed[c.Pin]; ok {
			return nil, nil, resource.NewConfigValidationError(path,
				errors.Errorf("pin %s claimed by both %q and %q", c.Pin, prev, c.Name))
		}
		pinUsed[c.Pin] = c.Name
	}
	return nil, nil, nil
}
