//go:build linux

package device

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	iocGAXES    uint = 0x80016a11
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x80ff6a13
)

type device struct {
	file        *os.File
	index       int
	name        string
	axisCount   uint8
	buttonCount uint8
	buf         [EventSize]byte
}

// Open opens /dev/input/js<index>.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &device{file: f, index: index}
	var name [256]byte
	for _, q := range []struct {
		req uint
		ptr unsafe.Pointer
	}{
		{iocGAXES, unsafe.Pointer(&d.axisCount)},
		{iocGBUTTONS, unsafe.Pointer(&d.buttonCount)},
		{iocGNAME, unsafe.Pointer(&name)},
	} {
		if errno := d.ioctl(q.req, q.ptr); errno != 0 {
			f.Close()
			return nil, errno
		}
	}
	if pos := bytes.IndexByte(name[:], 0); pos >= 0 {
		d.name = string(name[:pos])
	} else {
		d.name = string(name[:])
	}
	return d, nil
}

// DetectAndOpen opens the first device from startIndex. It returns nil
// without error when none is present.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < 32; index++ {
		d, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return d, err
	}
	return nil, nil
}

func (d *device) Close() error { return d.file.Close() }
func (d *device) Index() int { return d.index }
func (d *device) Name() string { return d.name }
func (d *device) AxisCount() int { return int(d.axisCount) }
func (d *device) ButtonCount() int { return int(d.buttonCount) }

// ReadEvent implements Device.
func (d *device) ReadEvent() (Event, error) {
	if _, err := io.ReadFull(d.file, d.buf[:]); err != nil {
		return nil, err
	}
	return DecodeEvent(d.buf[:])
}

func (d *device) ioctl(req uint, ptr unsafe.Pointer) unix.Errno {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.file.Fd(), uintptr(req), uintptr(ptr))
	return errno
}
