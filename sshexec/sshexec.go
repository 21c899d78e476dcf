// Package sshexec spawns the external ssh process that carries an SFTP
// session and hands its stdio pipes to the protocol engine.
//
// Authentication stays ssh's business: keys and agents work untouched.
// When a password is configured, the child gets a pseudo-terminal as its
// controlling tty and the prompt is answered on the pty master, since
// ssh refuses to read passwords from anything but its tty.
package sshexec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/pkg/errors"
)

// Config selects how the ssh child is started.
type Config struct {
	Host string
	Port int
	User string

	// Password, when set, is typed at the child's password prompt over
	// a pty. Empty means BatchMode: keys or agent only.
	Password string

	// Fingerprint, when set, pins the expected host key.
	Fingerprint string

	// Protocol selects the ssh protocol major version; zero lets ssh decide.
	Protocol int

	// Options are extra -o settings, passed through verbatim.
	Options []string

	// KeepAlive turns on server-alive probing.
	KeepAlive bool

	// Debug adds -v to the child's arguments.
	Debug bool

	// Binary overrides the ssh executable; default "ssh".
	Binary string
}

// Cmd is a running ssh child. Stdin and Stdout are the SFTP data pipes;
// both are *os.File pipes and support I/O deadlines.
type Cmd struct {
	cmd *exec.Cmd

	Stdin  io.WriteCloser
	Stdout io.ReadCloser

	ptmx *os.File // nil without password auth
}

func (cfg *Config) args() []string {
	var args []string

	if cfg.Password == "" {
		args = append(args, "-oBatchMode=yes")
	}

	if cfg.KeepAlive {
		args = append(args, "-oServerAliveInterval=30")
	}

	if cfg.Fingerprint != "" {
		args = append(args, "-oStrictHostKeyChecking=yes")
	}

	if cfg.Protocol != 0 {
		args = append(args, "-"+strconv.Itoa(cfg.Protocol))
	}

	if cfg.Debug {
		args = append(args, "-v")
	}

	for _, o := range cfg.Options {
		args = append(args, "-o"+o)
	}

	if cfg.Port != 0 {
		args = append(args, "-p", strconv.Itoa(cfg.Port))
	}

	if cfg.User != "" {
		args = append(args, "-l", cfg.User)
	}

	args = append(args, cfg.Host, "-s", "sftp")

	return args
}

// Start launches the ssh child and returns its SFTP pipes.
func Start(cfg Config) (*Cmd, error) {
	bin := cfg.Binary
	if bin == "" {
		bin = "ssh"
	}

	cmd := exec.Command(bin, cfg.args()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	c := &Cmd{
		cmd:    cmd,
		Stdin:  stdin,
		Stdout: stdout,
	}

	if cfg.Password != "" {
		// The pty becomes the child's controlling terminal via stderr,
		// which keeps stdin/stdout free for the binary protocol.
		ptmx, tts, err := pty.Open()
		if err != nil {
			return nil, errors.Wrap(err, "allocating pty")
		}

		cmd.Stderr = tts
		cmd.SysProcAttr = &syscall.SysProcAttr{
			Setsid:  true,
			Setctty: true,
			Ctty:    2,
		}

		if err := cmd.Start(); err != nil {
			ptmx.Close()
			tts.Close()
			return nil, errors.Wrap(err, "starting ssh")
		}

		tts.Close()
		c.ptmx = ptmx

		go answerPrompt(ptmx, cfg.Password)

		return c, nil
	}

	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "starting ssh")
	}

	return c, nil
}

// answerPrompt watches the pty master for a password prompt and types
// the password once. Everything else the child writes there is drained
// so it cannot block on a full pty buffer.
func answerPrompt(ptmx *os.File, password string) {
	defer ptmx.Close()

	answered := false
	buf := make([]byte, 512)
	var line []byte

	for {
		n, err := ptmx.Read(buf)
		if err != nil {
			return
		}

		if answered {
			continue
		}

		line = append(line, buf[:n]...)

		if bytes.Contains(bytes.ToLower(line), []byte("password")) {
			fmt.Fprintf(ptmx, "%s\n", password)
			answered = true
			line = nil
		}

		// Prompts fit in one line; cap the scan window.
		if len(line) > 4096 {
			line = line[len(line)-256:]
		}
	}
}

// Pid returns the child's process id, for diagnostics.
func (c *Cmd) Pid() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Close reaps the child: it waits up to grace for a voluntary exit,
// then kills. The data pipes are closed first so a well-behaved ssh
// sees EOF and exits on its own.
func (c *Cmd) Close(grace time.Duration) error {
	c.Stdin.Close()
	c.Stdout.Close()

	if c.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()

	if grace > 0 {
		select {
		case err := <-done:
			return ignoreExitError(err)
		case <-time.After(grace):
		}
	}

	c.cmd.Process.Kill()
	return ignoreExitError(<-done)
}

// ignoreExitError keeps only errors that are not plain nonzero exits;
// ssh exiting 1 after a closed session is not worth reporting.
func ignoreExitError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// String renders the command line for trace logs, password excluded.
func (c *Cmd) String() string {
	return strings.Join(c.cmd.Args, " ")
}
