//go:build linux

// Package mcxn947 implements a board backed by the FlexIO peripheral of the
// NXP MCXN947, with PWM outputs generated by FlexIO timer channels.
package mcxn947

/*
	The board maps the FLEXIO0 register block from device memory and drives
	one PWM waveform per configured pin. Board bring-up (pin muxing, clock
	tree attachment) is expected to have happened before this module runs;
	the config only tells the driver what the functional clock ended up
	being. There are no analog readers or digital interrupts on this
	peripheral.
*/

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	pb "go.viam.com/api/component/board/v1"
	"go.viam.com/rdk/components/board"
	"go.viam.com/rdk/grpc"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"

	"flexio-pwm/flexio"
	flexioutils "flexio-pwm/utils"
)

// Model is the model for an MCXN947 FlexIO board.
var Model = flexioutils.FlexioFamily.WithModel("mcxn947")

func init() {
	resource.RegisterComponent(
		board.API,
		Model,
		resource.Registration[board.Board, *flexioutils.Config]{
			Constructor: newBoard,
		})
}

type flexioBoard struct {
	resource.Named
	mu sync.Mutex

	logger logging.Logger
	periph *flexio.Peripheral

	// mapping parameters the peripheral was opened with; changing them
	// needs a rebuild, not a reconfigure
	devMemPath  string
	baseAddress int64
	clockHz     uint32

	pins       map[string]*flexioPin // by configured name
	pinConfigs []flexioutils.PinConfig
}

// newBoard is the constructor for a Board.
func newBoard(
	ctx context.Context,
	_ resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
) (board.Board, error) {
	newConf, err := resource.NativeConfig[*flexioutils.Config](conf)
	if err != nil {
		return nil, err
	}

	if model, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		logger.Debugf("running on %q", string(model))
	}

	periph, err := flexio.Open(flexio.Config{
		DevMemPath:       newConf.DevMemPath,
		BaseAddress:      newConf.BaseAddress,
		ClockFrequencyHz: newConf.ClockFrequencyHz,
		HasPinStatus:     true, // the MCXN947 FlexIO reports pin state
	}, logger)
	if err != nil {
		return nil, err
	}
	minHz, maxHz := periph.FrequencyBounds()
	logger.Infof("flexio pwm ready, usable frequency range (%d, %d) Hz", minHz, maxHz)

	b := &flexioBoard{
		Named:       conf.ResourceName().AsNamed(),
		logger:      logger,
		periph:      periph,
		devMemPath:  newConf.DevMemPath,
		baseAddress: newConf.BaseAddress,
		clockHz:     newConf.ClockFrequencyHz,
		pins:        map[string]*flexioPin{},
	}

	if err := b.Reconfigure(ctx, nil, conf); err != nil {
		return nil, multierr.Combine(err, periph.Close())
	}
	return b, nil
}

func (b *flexioBoard) Reconfigure(
	ctx context.Context,
	_ resource.Dependencies,
	conf resource.Config,
) error {
	newConf, err := resource.NativeConfig[*flexioutils.Config](conf)
	if err != nil {
		return err
	}

	if newConf.DevMemPath != b.devMemPath || newConf.BaseAddress != b.baseAddress ||
		newConf.ClockFrequencyHz != b.clockHz {
		return errors.New("changing dev_mem_path, base_address or clock_frequency_hz requires rebuilding the board")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// make sure every pin has a name
	for i, c := range newConf.Pins {
		if c.Name == "" {
			newConf.Pins[i].Name = c.Pin
		}
	}

	// Park outputs that are no longer configured.
	for name, pin := range b.pins {
		if !pinStillConfigured(pin, newConf.Pins) {
			if err := b.periph.SetOutputIdle(pin.timerChannel, pin.pinChannel, false); err != nil {
				return err
			}
			delete(b.pins, name)
		}
	}

	// One-shot startup programming, the way the vendor demo configures the
	// waveform once and then idles.
	for _, c := range newConf.Pins {
		pinChannel, _ := flexioutils.FlexioPinFromHardwareLabel(c.Pin)
		pin := &flexioPin{
			b:            b,
			name:         c.Name,
			pinChannel:   pinChannel,
			timerChannel: uint8(c.TimerChannel),
			freqHz:       uint32(c.PWMFreqHz),
		}
		if pin.freqHz == 0 {
			pin.freqHz = flexioutils.DefaultPWMFreqHz
		}

		if c.StartDutyPct != nil {
			err = b.periph.ConfigurePWM(pin.timerChannel, pin.pinChannel, pin.freqHz, uint32(*c.StartDutyPct))
		} else {
			err = b.periph.SetOutputIdle(pin.timerChannel, pin.pinChannel, c.IdleHigh)
		}
		if err != nil {
			return errors.Wrapf(err, "failed to program pin %s", c.Name)
		}
		b.pins[c.Name] = pin
	}

	b.pinConfigs = newConf.Pins
	return nil
}

func pinStillConfigured(pin *flexioPin, confs []flexioutils.PinConfig) bool {
	for _, c := range confs {
		if c.Name == pin.name || c.Pin == pin.name {
			return true
		}
	}
	return false
}

// GPIOPinByName returns a pin by its configured name or by its hardware
// label.
func (b *flexioBoard) GPIOPinByName(name string) (board.GPIOPin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pin, ok := b.pins[name]; ok {
		return pin, nil
	}
	if pinChannel, ok := flexioutils.FlexioPinFromHardwareLabel(name); ok {
		for _, pin := range b.pins {
			if pin.pinChannel == pinChannel {
				return pin, nil
			}
		}
	}
	return nil, errors.Errorf("no flexio pwm pin configured as %q", name)
}

// AnalogByName returns the analog pin by the given name if it exists.
func (b *flexioBoard) AnalogByName(name string) (board.Analog, error) {
	return nil, errors.New("analogs not supported")
}

// AnalogNames returns the names of all known analog pins.
func (b *flexioBoard) AnalogNames() []string {
	return []string{}
}

// DigitalInterruptByName returns the interrupt by the given name if it exists.
func (b *flexioBoard) DigitalInterruptByName(name string) (board.DigitalInterrupt, error) {
	return nil, errors.New("digital interrupts not supported")
}

// DigitalInterruptNames returns the names of all known digital interrupts.
func (b *flexioBoard) DigitalInterruptNames() []string {
	return nil
}

// StreamTicks starts a stream of digital interrupt ticks.
func (b *flexioBoard) StreamTicks(ctx context.Context, interrupts []board.DigitalInterrupt, ch chan board.Tick,
	extra map[string]interface{},
) error {
	return errors.New("digital interrupts not supported")
}

func (b *flexioBoard) SetPowerMode(ctx context.Context, mode pb.PowerMode, duration *time.Duration) error {
	return grpc.UnimplementedError
}

// Close parks every configured output at a low idle level and unmaps the
// register block.
func (b *flexioBoard) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	for _, pin := range b.pins {
		err = multierr.Combine(err, b.periph.SetOutputIdle(pin.timerChannel, pin.pinChannel, false))
	}
	err = multierr.Combine(err, b.periph.Close())
	b.logger.CDebug(ctx, "flexio pwm terminated")
	return err
}
