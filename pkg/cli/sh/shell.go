package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	fx "github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/host"
	"github.com/robotalks/drive.go/pkg/host/link"
)

// Shell provides ishell backed interactive register console.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// URL is the link opened by Run, see link.Open.
	URL string

	Shell   *ishell.Shell
	Session *Session
}

// Session is an open link with its client running.
type Session struct {
	URL    string
	Client *host.Client
	Cancel func()
	Done   <-chan error
}

// Close stops the session.
func (s *Session) Close() error {
	s.Cancel()
	err := <-s.Done
	if err == context.Canceled {
		return nil
	}
	return err
}

// Command is a console command. Run returns a value to print.
type Command struct {
	Name    string
	Aliases []string
	Help    string
	// Offline commands do not need a session.
	Offline bool
	Run     func(s *Shell, args []string) (interface{}, error)
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands []*Command
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*Command) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(url string) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		URL:         url,
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

func lookup(name string) *Command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
		for _, alias := range cmd.Aliases {
			if alias == name {
				return cmd
			}
		}
	}
	return nil
}

// Client returns the client of the current session.
func (s *Shell) Client() (*host.Client, error) {
	if s.Session == nil {
		return nil, host.ErrNotConnected
	}
	return s.Session.Client, nil
}

// Exec runs a command and returns its result.
func (s *Shell) Exec(name string, args ...string) (interface{}, error) {
	cmd := lookup(name)
	if cmd == nil {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	if !cmd.Offline && s.Session == nil {
		return nil, host.ErrNotConnected
	}
	return cmd.Run(s, args)
}

// Format renders a command result for output.
func (s *Shell) Format(res interface{}) (string, error) {
	if s.OutputJSON {
		out, err := json.Marshal(res)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	if res == nil {
		return "OK", nil
	}
	return fmt.Sprint(res), nil
}

// Attach starts a session on an open connection.
func (s *Shell) Attach(url string, conn link.Conn) *Session {
	client := host.NewClient(conn)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- fx.NewRunnerWith(ctx).FailFast().
			Go(client, client.Heartbeat()).
			Wait()
	}()
	s.Disconnect()
	s.Session = &Session{URL: url, Client: client, Cancel: cancel, Done: done}
	if s.Shell != nil {
		s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	}
	return s.Session
}

// Connect opens a link and starts a session on it.
func (s *Shell) Connect(url string) error {
	conn, err := link.Open(url)
	if err != nil {
		return err
	}
	s.Attach(url, conn)
	return nil
}

// Disconnect stops the current session. A stop command is sent first so
// the vehicle does not wait for its failsafe.
func (s *Shell) Disconnect() {
	if s.Session == nil {
		return
	}
	if err := s.Session.Client.EmergencyStop(); err != nil {
		glog.Warningf("stop on disconnect: %v", err)
	}
	if err := s.Session.Close(); err != nil {
		glog.Warningf("session %s: %v", s.Session.URL, err)
	}
	s.Session = nil
	if s.Shell != nil {
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (s *Shell) ishellCmd(cmd *Command) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    cmd.Name,
		Aliases: cmd.Aliases,
		Help:    cmd.Help,
		Func: func(c *ishell.Context) {
			res, err := ShellFrom(c).Exec(cmd.Name, c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			out, err := s.Format(res)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}
}

// Run runs the shell. With args, they are evaluated as one command.
func (s *Shell) Run(args ...string) {
	if s.URL != "" {
		if err := s.Connect(s.URL); err != nil {
			log.Fatalf("connect %q failed: %v", s.URL, err)
		}
		defer s.Disconnect()
	}

	if len(args) > 0 {
		res, err := s.Exec(args[0], args[1:]...)
		if err != nil {
			log.Fatalln(err)
		}
		out, err := s.Format(res)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println(out)
		return
	}
	if !s.Interactive {
		log.Fatalln("command expected")
	}

	s.Shell = ishell.New()
	s.Shell.Set(shellKey, s)
	if s.Session != nil {
		s.Shell.SetPrompt(fmt.Sprintf("%s > ", s.Session.URL))
	} else {
		s.Shell.SetPrompt(unconnectedPrompt)
	}
	for _, cmd := range commands {
		s.Shell.AddCmd(s.ishellCmd(cmd))
	}
	s.Shell.Println("drive console, type help for commands")
	s.Shell.Run()
}

// Help lists the commands.
func Help() string {
	var b strings.Builder
	for _, cmd := range commands {
		fmt.Fprintf(&b, "%-10s %s\n", cmd.Name, cmd.Help)
	}
	return b.String()
}
