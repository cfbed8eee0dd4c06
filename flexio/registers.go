//go:build linux

// Package flexio implements a userspace driver for the timer channels of the
// NXP FlexIO peripheral, accessed through a memory mapped register block.
package flexio

/*
	registers.go: Maps the FlexIO register block and provides 32-bit
	register access. Only the subset of the register file needed for
	PWM generation is described here.
*/

import (
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Register offsets within the FlexIO block.
const (
	regVerID = 0x00 // version ID
	regParam = 0x04 // shifter/timer/pin/trigger counts
	regCtrl  = 0x08 // enable, software reset
	regPin   = 0x0c // raw pin state, one bit per FlexIO data pin

	regTimCtl = 0x400 // timer control, one word per channel
	regTimCfg = 0x480 // timer configuration, one word per channel
	regTimCmp = 0x500 // timer compare, one word per channel
)

// CTRL register bits.
const (
	ctrlFlexEn = 1 << 0
	ctrlSwRst  = 1 << 1
)

// TimerChannelCount is the number of timer channels on the FlexIO instances
// this driver targets (8 on the MCXN947).
const TimerChannelCount = 8

// PinCount is the number of FlexIO data pins addressable by a timer's
// PINSEL field.
const PinCount = 32

// regionSize covers every register this driver touches.
const regionSize = 0x1000

// registerBlock is a mapped view of one FlexIO instance.
type registerBlock struct {
	mem []byte
}

// mapRegisters maps regionSize bytes of the given device memory file at the
// peripheral's base address. Any regular file works too, which is how the
// tests run without hardware.
func mapRegisters(path string, base int64) (*registerBlock, error) {
	devMem, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	// The mapping outlives the descriptor.
	defer func() {
		_ = devMem.Close()
	}()

	mem, err := unix.Mmap(int(devMem.Fd()), base, regionSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map %s at %#x", path, base)
	}
	return &registerBlock{mem: mem}, nil
}

func (r *registerBlock) close() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	return err
}

// Registers must be accessed as aligned 32-bit words; byte stores would
// produce partial bus transactions on the peripheral.
func (r *registerBlock) read32(offset uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&r.mem[offset])))
}

func (r *registerBlock) write32(offset uintptr, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&r.mem[offset])), value)
}

func timerOffset(base uintptr, timerChannel uint8) uintptr {
	return base + 4*uintptr(timerChannel)
}
