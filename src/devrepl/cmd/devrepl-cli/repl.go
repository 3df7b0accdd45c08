package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	nreplclient "github.com/uber/devrepl/src/devrepl/gateway/nrepl-client"
	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"github.com/uber/devrepl/src/devrepl/mapper"
)

const (
	_promptMain = "devrepl> "
	_promptCont = "    ...> "
)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

// prompter reads one line of input. liner.State implements it.
type prompter interface {
	Prompt(prompt string) (string, error)
}

type repl struct {
	client nreplclient.Client
	fs     fs.DevreplFS
	out    io.Writer
	color  bool
}

// readInput returns the next unit of input: a single command line, or code lines up to a blank
// line. The boolean is false at end of input.
func readInput(p prompter) (string, bool) {
	var lines []string
	for {
		prompt := _promptMain
		if len(lines) > 0 {
			prompt = _promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			lines = nil
			continue
		}
		if err != nil {
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), true
			}
			return "", false
		}

		if len(lines) == 0 {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if strings.HasPrefix(strings.TrimSpace(line), ":") {
				return line, true
			}
		}
		if strings.TrimSpace(line) == "" {
			return strings.Join(lines, "\n"), true
		}
		lines = append(lines, line)
	}
}

// submit runs one unit of input. It reports whether the user asked to quit.
func (r *repl) submit(ctx context.Context, input string) (bool, error) {
	if !strings.HasPrefix(strings.TrimSpace(input), ":") {
		return false, r.send(ctx, wire.Message{mapper.KeyOp: "eval", mapper.KeyCode: input})
	}

	cmd, err := parseCommand(input)
	if err != nil {
		return false, err
	}
	switch {
	case cmd.quit:
		return true, nil
	case cmd.help:
		fmt.Fprint(r.out, _helpText)
		return false, nil
	case cmd.file != "":
		src, err := r.fs.ReadFile(cmd.file)
		if err != nil {
			return false, fmt.Errorf("reading %s: %w", cmd.file, err)
		}
		cmd.msg[mapper.KeyCode] = string(src)
	}
	return false, r.send(ctx, cmd.msg)
}

func (r *repl) send(ctx context.Context, msg wire.Message) error {
	resps, err := r.client.Do(ctx, msg)
	if err != nil {
		return err
	}
	r.render(msg[mapper.KeyOp], resps)
	return nil
}

// render prints the responses of one request in the order they arrived.
func (r *repl) render(op string, resps []wire.Message) {
	showImports := op == "imports-get" || op == "imports-add" || op == "reset-session"
	for _, resp := range resps {
		if out, ok := resp[mapper.KeyOut]; ok {
			fmt.Fprint(r.out, out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Fprintln(r.out)
			}
		}
		if v, ok := resp[mapper.KeyValue]; ok {
			fmt.Fprintln(r.out, r.paint(green, v))
		}
		if m, ok := resp[mapper.KeyMessage]; ok && m != "" {
			fmt.Fprintln(r.out, r.paint(blue, m))
		}
		if ops, ok := resp[mapper.KeyOps]; ok {
			fmt.Fprintln(r.out, strings.ReplaceAll(ops, ",", "\n"))
		}
		if imps, ok := resp[mapper.KeyImports]; ok && showImports && imps != "" {
			fmt.Fprintln(r.out, imps)
		}
		if e, ok := resp[mapper.KeyErr]; ok {
			fmt.Fprintln(r.out, r.paint(red, e))
		}
		for _, s := range strings.Split(resp[mapper.KeyStatus], ",") {
			if s == mapper.StatusUnknownOp {
				fmt.Fprintln(r.out, r.paint(red, "server does not support "+op))
			}
		}
	}
}

func (r *repl) paint(f func(string) string, s string) string {
	if !r.color {
		return s
	}
	return f(s)
}
