package link

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaud is the vehicle UART rate.
const DefaultBaud = 115200

// OpenSerial opens a serial port in 8N1 mode.
func OpenSerial(name string, baud int) (Conn, error) {
	port, err := serial.Open(name, SerialMode(baud))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", name, err)
	}
	return port, nil
}

// SerialMode returns the 8N1 mode at baud.
func SerialMode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
