package xfile

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"
)

// shellMeta are the characters that force a command through the shell.
// Without them the command is split with shellquote and exec'd directly,
// which keeps quoting exact and skips a shell fork.
const shellMeta = "|&;<>()$`*?~"

const stderrCap = 4096

type pipeCmd struct {
	text   string
	cmd    *exec.Cmd
	g      *errgroup.Group
	stderr cappedBuffer

	stdin  io.WriteCloser // write pipes only
	sawEOF bool           // read pipes: consumer reached the command's EOF
	waited bool
	err    error
}

func buildCommand(text string) (*exec.Cmd, error) {
	if strings.ContainsAny(text, shellMeta) {
		return exec.Command("sh", "-c", text), nil
	}
	argv, err := shellquote.Split(text)
	if err != nil {
		return nil, fmt.Errorf("bad pipe command %q: %w", text, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty pipe command")
	}
	return exec.Command(argv[0], argv[1:]...), nil
}

// startReadPipe runs a command and returns its stdout as a stream.
func startReadPipe(text string) (*pipeCmd, io.Reader, error) {
	cmd, err := buildCommand(text)
	if err != nil {
		return nil, nil, err
	}
	p := &pipeCmd{text: text, cmd: cmd, g: &errgroup.Group{}}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	p.g.Go(func() error {
		_, err := io.Copy(&p.stderr, stderr)
		return err
	})
	return p, &eofTracker{r: stdout, sawEOF: &p.sawEOF}, nil
}

// startWritePipe runs a command and returns its stdin as a stream. The
// command's stdout is inherited; redirection belongs in the command text.
func startWritePipe(text string) (*pipeCmd, io.WriteCloser, error) {
	cmd, err := buildCommand(text)
	if err != nil {
		return nil, nil, err
	}
	p := &pipeCmd{text: text, cmd: cmd, g: &errgroup.Group{}}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	p.stdin = stdin
	cmd.Stdout = os.Stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	p.g.Go(func() error {
		_, err := io.Copy(&p.stderr, stderr)
		return err
	})
	return p, stdin, nil
}

// finishRead reaps a read pipe. Early termination (the consumer closed
// before draining the command) kills the child and is not an error; a child
// that was read to EOF must have exited cleanly.
func (p *pipeCmd) finishRead() error {
	if p.waited {
		return p.err
	}
	p.waited = true
	killed := false
	if !p.sawEOF && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		killed = true
	}
	_ = p.g.Wait()
	err := p.cmd.Wait()
	if err != nil && !killed {
		p.err = p.exitError(err)
	}
	return p.err
}

// finishWrite closes the command's stdin and waits for it to drain and exit.
func (p *pipeCmd) finishWrite() error {
	if p.waited {
		return p.err
	}
	p.waited = true
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	_ = p.g.Wait()
	if err := p.cmd.Wait(); err != nil {
		p.err = p.exitError(err)
	}
	return p.err
}

func (p *pipeCmd) exitError(err error) error {
	if msg := strings.TrimSpace(p.stderr.String()); msg != "" {
		return fmt.Errorf("pipe command %q: %w: %s", p.text, err, msg)
	}
	return fmt.Errorf("pipe command %q: %w", p.text, err)
}

type eofTracker struct {
	r      io.Reader
	sawEOF *bool
}

func (t *eofTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err == io.EOF {
		*t.sawEOF = true
	}
	return n, err
}

// cappedBuffer keeps the first stderrCap bytes and discards the rest, so a
// chatty child cannot balloon memory while we only need a diagnostic.
type cappedBuffer struct {
	buf []byte
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := stderrCap - len(b.buf); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		b.buf = append(b.buf, p[:room]...)
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string { return string(b.buf) }
