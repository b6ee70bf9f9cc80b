package protocol

// Register addresses.
const (
	RegServo    byte = 0
	RegMotor    byte = 1
	RegReserved byte = 2
)

// Notification tells the scheduler which kind of command arrived last.
type Notification int

const (
	NotifyNone Notification = iota
	NotifyServo
	NotifyMotor
	NotifyOther
)

func (n Notification) String() string {
	switch n {
	case NotifyNone:
		return "none"
	case NotifyServo:
		return "servo"
	case NotifyMotor:
		return "motor"
	case NotifyOther:
		return "other"
	}
	return "unknown"
}

// Registers is the shadow register file.
type Registers struct {
	// Servo keeps the low byte of the last servo write.
	Servo int8
	Motor int16
}

// Read returns the shadow value at addr. Unmapped addresses read 0.
func (r *Registers) Read(addr byte) int16 {
	switch addr & AddrMask {
	case RegServo:
		return int16(r.Servo)
	case RegMotor:
		return r.Motor
	}
	return 0
}

// Write stores v at addr and returns the command kind owned by addr.
// Unmapped addresses are left untouched.
func (r *Registers) Write(addr byte, v int16) Notification {
	switch addr & AddrMask {
	case RegServo:
		r.Servo = int8(v)
		return NotifyServo
	case RegMotor:
		r.Motor = v
		return NotifyMotor
	}
	return NotifyOther
}

// Mailbox holds the most recent notification until consumed.
// Later posts overwrite earlier ones.
type Mailbox struct {
	pending Notification
}

// Post records n.
func (m *Mailbox) Post(n Notification) {
	m.pending = n
}

// Peek returns the pending notification without consuming it.
func (m *Mailbox) Peek() Notification {
	return m.pending
}

// Take returns and clears the pending notification.
func (m *Mailbox) Take() (n Notification) {
	n, m.pending = m.pending, NotifyNone
	return
}
