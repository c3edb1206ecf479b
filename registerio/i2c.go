/*
DESCRIPTION
  i2c.go provides an I2C-backed implementation of device.RegisterIo, for
  stereo cameras whose control plane (occlusion/peculiar removal, generic
  registers) is reachable over an I2C bus.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package registerio provides device.RegisterIo implementations for
// accessing a stereo camera's control-plane registers.
package registerio

import (
	"fmt"

	"github.com/kidoman/embd"
)

// I2C implements device.RegisterIo over an I2C bus, addressing a single
// device address on that bus.
type I2C struct {
	bus  embd.I2CBus
	addr byte
}

// NewI2C returns an I2C RegisterIo for the given bus number and device
// address.
func NewI2C(busNum int, addr byte) *I2C {
	return &I2C{bus: embd.NewI2CBus(byte(busNum)), addr: addr}
}

// ReadRegister writes wbuf to select a register, then reads back
// len(rbuf) bytes into rbuf.
func (i *I2C) ReadRegister(wbuf, rbuf []byte) (int, error) {
	if len(wbuf) != 0 {
		if err := i.bus.WriteBytes(i.addr, wbuf); err != nil {
			return 0, fmt.Errorf("registerio: could not select register: %w", err)
		}
	}
	got, err := i.bus.ReadBytes(i.addr, len(rbuf))
	if err != nil {
		return 0, fmt.Errorf("registerio: could not read register: %w", err)
	}
	n := copy(rbuf, got)
	return n, nil
}

// WriteRegister writes wbuf (register select + payload) to the bus.
func (i *I2C) WriteRegister(wbuf []byte) error {
	if err := i.bus.WriteBytes(i.addr, wbuf); err != nil {
		return fmt.Errorf("registerio: could not write register: %w", err)
	}
	return nil
}
