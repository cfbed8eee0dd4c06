//go:build linux

/* flexio_external_test exercises the board through exported functions only */
package mcxn947_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/rdk/components/board"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/test"

	"flexio-pwm/mcxn947"
	flexioutils "flexio-pwm/utils"
)

func TestFlexioBoard(t *testing.T) {
	boardReg, ok := resource.LookupRegistration(board.API, mcxn947.Model)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, boardReg, test.ShouldNotBeNil)

	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	regPath := filepath.Join(t.TempDir(), "flexio-regs")
	err := os.WriteFile(regPath, make([]byte, 0x1000), 0o600)
	test.That(t, err, test.ShouldBeNil)

	startDuty := 50
	cfg := flexioutils.Config{
		DevMemPath:       regPath,
		ClockFrequencyHz: 4_800_000,
		Pins: []flexioutils.PinConfig{
			{Name: "pwm0", Pin: "D0", TimerChannel: 0, PWMFreqHz: 100_000, StartDutyPct: &startDuty},
		},
	}

	boardInt, err := boardReg.Constructor(
		ctx,
		nil,
		resource.Config{
			Name:                "flexio",
			ConvertedAttributes: &cfg,
		},
		logger,
	)
	test.That(t, err, test.ShouldBeNil)
	b := boardInt.(board.Board)

	defer func() {
		test.That(t, b.Close(ctx), test.ShouldBeNil)
	}()

	t.Run("external gpio and pwm", func(t *testing.T) {
		pin, err := b.GPIOPinByName("pwm0")
		test.That(t, err, test.ShouldBeNil)

		// startup duty comes from the config
		vF, err := pin.PWM(ctx, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vF, test.ShouldAlmostEqual, 0.5, 0.01)

		// pwm 90%
		err = pin.SetPWM(ctx, 0.9, nil)
		test.That(t, err, test.ShouldBeNil)

		vF, err = pin.PWM(ctx, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vF, test.ShouldAlmostEqual, 0.9, 0.01)

		// 200 kHz
		err = pin.SetPWMFreq(ctx, 200_000, nil)
		test.That(t, err, test.ShouldBeNil)

		vI, err := pin.PWMFreq(ctx, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vI, test.ShouldEqual, 200_000)

		// park high, then low
		err = pin.Set(ctx, true, nil)
		test.That(t, err, test.ShouldBeNil)

		vF, err = pin.PWM(ctx, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vF, test.ShouldEqual, 0.0)

		err = pin.Set(ctx, false, nil)
		test.That(t, err, test.ShouldBeNil)

		// a parked output with a low pad reads low
		v, err := pin.Get(ctx, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, false)
	})

	t.Run("external invalid requests", func(t *testing.T) {
		pin, err := b.GPIOPinByName("pwm0")
		test.That(t, err, test.ShouldBeNil)

		// beyond what the functional clock can generate
		err = pin.SetPWMFreq(ctx, 3_000_000, nil)
		test.That(t, err, test.ShouldNotBeNil)

		_, err = b.GPIOPinByName("unconfigured")
		test.That(t, err, test.ShouldNotBeNil)
	})
}
