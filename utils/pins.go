package flexioutils

import (
	"strconv"
	"strings"
)

/*
	pins.go: Maps user-facing pin labels to FlexIO data pin numbers.
	The datasheet names the pins FXIO_D0..FXIO_D31; configs may use the
	short "D0" form or the bare pin number.
*/

const flexioPinCount = 32

// FlexioPinFromHardwareLabel returns the FlexIO data pin number for a label
// like "FXIO_D7", "D7" or "7", and whether the label is valid.
func FlexioPinFromHardwareLabel(label string) (uint8, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(label))
	trimmed = strings.TrimPrefix(trimmed, "FXIO_")
	trimmed = strings.TrimPrefix(trimmed, "D")

	pin, err := strconv.Atoi(trimmed)
	if err != nil || pin < 0 || pin >= flexioPinCount {
		return 0, false
	}
	return uint8(pin), true
}
