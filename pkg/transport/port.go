package transport

import (
	"context"
	"io"
	"os"

	"github.com/golang/glog"
)

// Port pumps bytes between an io.ReadWriter and a Serial, standing in for
// the UART interrupt and DMA completion handlers.
type Port struct {
	ReadWriter io.ReadWriter
	Serial     *Serial

	dma  *RxDMA
	txCh chan []byte
}

// NewPort creates a Port and its Serial.
func NewPort(rw io.ReadWriter) *Port {
	p := &Port{
		ReadWriter: rw,
		txCh:       make(chan []byte, 1),
	}
	p.Serial = NewSerial(p)
	p.dma = NewRxDMA(RXChunkSize, p.Serial)
	return p
}

// StartTransmit implements Transmitter.
func (p *Port) StartTransmit(b []byte) error {
	select {
	case p.txCh <- b:
		return nil
	default:
		return ErrLinkBusy
	}
}

// Run pumps the link until it fails or ctx is done.
func (p *Port) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go p.readLoop(subCtx, errCh)
	go p.writeLoop(subCtx, errCh)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Port) readLoop(ctx context.Context, errCh chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := p.ReadWriter.Read(p.dma.Free())
		p.dma.Advance(n)
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			glog.V(2).Infof("link read: %v", err)
			errCh <- err
			return
		}
	}
}

func (p *Port) writeLoop(ctx context.Context, errCh chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-p.txCh:
			n, err := p.ReadWriter.Write(b)
			p.Serial.TxComplete(n)
			if err != nil {
				glog.V(2).Infof("link write: %v", err)
				errCh <- err
				return
			}
		}
	}
}
