package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/golang/glog"
	"golang.org/x/term"

	fx "github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/host"
	"github.com/robotalks/drive.go/pkg/host/link"
)

var errLinkClosed = errors.New("link closed")

// getPassword reads the websocket password from DRIVE_PASSWORD or the
// terminal.
func getPassword() (string, error) {
	if pw := os.Getenv("DRIVE_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}
	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

func openLink(rawURL string) (link.Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return link.Open(rawURL)
	}
	opts := link.WebSocketOptions{Username: wsUsername, SkipSSLVerify: wsNoSSLVerify}
	if opts.Username != "" {
		if opts.Password, err = getPassword(); err != nil {
			return nil, err
		}
	}
	return link.OpenWebSocket(rawURL, opts)
}

// session is a client running on an open link.
type session struct {
	URL    string
	Client *host.Client

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func openSession(rawURL string) (*session, error) {
	conn, err := openLink(rawURL)
	if err != nil {
		return nil, err
	}
	glog.Infof("connected to %s", rawURL)
	client := host.NewClient(conn)
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{URL: rawURL, Client: client, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		s.err = fx.NewRunnerWith(ctx).FailFast().
			Go(fx.NamedRun("client", client), fx.NamedRun("heartbeat", client.Heartbeat())).
			Wait()
	}()
	return s, nil
}

// Watch is a Runnable failing when the link goes down.
func (s *session) Watch(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		if s.err != nil {
			return s.err
		}
		return errLinkClosed
	}
}

// Close stops the vehicle and the client.
func (s *session) Close() error {
	if err := s.Client.EmergencyStop(); err != nil {
		glog.Warningf("stop on exit: %v", err)
	}
	s.cancel()
	<-s.done
	if s.err == context.Canceled {
		return nil
	}
	return s.err
}

// runWith runs the session with runnables until a signal arrives or any of
// them fails.
func runWith(s *session, runnables ...fx.Runnable) error {
	runner := fx.NewRunner().HandleSignals().FailFast()
	runner.Go(fx.NamedRun("link", fx.RunFunc(s.Watch)))
	runner.Go(runnables...)
	err := runner.Wait()
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}
