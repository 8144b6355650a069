// Package console provides byte-oriented transports for the machine's
// Input and Output operations.
package console

import (
	"bufio"
	"io"
	"os"
)

// Device is a buffered console over an arbitrary reader/writer pair.
// It satisfies um.Console. Output is buffered; pending bytes are
// flushed before the device blocks waiting for input, so interactive
// programs see their prompts.
type Device struct {
	in  *bufio.Reader
	out *bufio.Writer
}

// New wraps a reader and writer in a Device.
func New(r io.Reader, w io.Writer) *Device {
	return &Device{
		in:  bufio.NewReader(r),
		out: bufio.NewWriter(w),
	}
}

// Stdio returns a Device bound to the process standard streams.
func Stdio() *Device {
	return New(os.Stdin, os.Stdout)
}

// ReadByte returns the next input byte, or io.EOF at end of stream.
func (d *Device) ReadByte() (byte, error) {
	if err := d.out.Flush(); err != nil {
		return 0, err
	}
	return d.in.ReadByte()
}

// WriteByte emits one output byte.
func (d *Device) WriteByte(b byte) error {
	return d.out.WriteByte(b)
}

// Flush drains buffered output. Call it before the process exits.
func (d *Device) Flush() error {
	return d.out.Flush()
}
