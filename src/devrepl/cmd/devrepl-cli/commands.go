package main

import (
	"fmt"
	"strings"

	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"github.com/uber/devrepl/src/devrepl/mapper"
)

const _helpText = `
Enter code over one or more lines and finish it with a blank line.

Commands:
  :patch <file>                     hot-patch the types declared in a script file
  :bind [expr]                      run context discovery, or bind the value of expr
  :reset                            reset the session
  :imports [import ...]             show the session imports, or add imports separated by ';'
  :bindings                         list the session globals
  :snap save <name> <expr>          pin the value of expr
  :snap json <name> <expr>          store the value of expr as JSON
  :snap load <name> [var]           bind a snapshot into the session
  :snap list [glob]                 list snapshots
  :snap info <name>                 describe a snapshot
  :snap delete <name>               remove a snapshot
  :snap materialize <name> <type> [target]
                                    store a JSON snapshot as a typed value
  :describe                         list the server operations
  :help                             show this text
  :quit                             exit
`

// command is a parsed REPL command. A nil msg with quit false means the command is handled
// locally.
type command struct {
	msg  wire.Message
	file string
	quit bool
	help bool
}

type commandError struct {
	usage string
}

func (e *commandError) Error() string {
	return "usage: " + e.usage
}

// parseCommand turns a line starting with ':' into a request.
func parseCommand(line string) (*command, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	if len(fields) == 0 {
		return nil, &commandError{usage: ":help"}
	}
	name, args := fields[0], fields[1:]
	rest := func(n int) string {
		return strings.Join(args[n:], " ")
	}

	switch name {
	case "quit", "q", "exit":
		return &command{quit: true}, nil
	case "help", "h":
		return &command{help: true}, nil
	case "describe":
		return &command{msg: op("describe")}, nil
	case "patch":
		if len(args) != 1 {
			return nil, &commandError{usage: ":patch <file>"}
		}
		return &command{msg: op("hot-patch"), file: args[0]}, nil
	case "bind":
		msg := op("bind-context")
		if len(args) > 0 {
			msg[mapper.KeyExpr] = rest(0)
		}
		return &command{msg: msg}, nil
	case "reset":
		return &command{msg: op("reset-session")}, nil
	case "imports":
		if len(args) == 0 {
			return &command{msg: op("imports-get")}, nil
		}
		msg := op("imports-add")
		msg[mapper.KeyImports] = strings.Join(splitImports(rest(0)), "\n")
		return &command{msg: msg}, nil
	case "bindings":
		return &command{msg: op("list-bindings")}, nil
	case "snap":
		return parseSnapshot(args)
	}
	return nil, fmt.Errorf("unknown command :%s, try :help", name)
}

func parseSnapshot(args []string) (*command, error) {
	const usage = ":snap save|json|load|list|info|delete|materialize ..."
	if len(args) == 0 {
		return nil, &commandError{usage: usage}
	}
	sub, args := args[0], args[1:]
	expr := func() string { return strings.Join(args[1:], " ") }

	switch sub {
	case "save", "json":
		if len(args) < 2 {
			return nil, &commandError{usage: ":snap " + sub + " <name> <expr>"}
		}
		o := "snapshot-save"
		if sub == "json" {
			o = "snapshot-save-json"
		}
		return &command{msg: op(o, mapper.KeyName, args[0], mapper.KeyExpr, expr())}, nil
	case "load":
		if len(args) < 1 || len(args) > 2 {
			return nil, &commandError{usage: ":snap load <name> [var]"}
		}
		msg := op("snapshot-load", mapper.KeyName, args[0])
		if len(args) == 2 {
			msg[mapper.KeyVar] = args[1]
		}
		return &command{msg: msg}, nil
	case "list":
		msg := op("snapshot-list")
		if len(args) > 0 {
			msg[mapper.KeyName] = args[0]
		}
		return &command{msg: msg}, nil
	case "info", "delete":
		if len(args) != 1 {
			return nil, &commandError{usage: ":snap " + sub + " <name>"}
		}
		return &command{msg: op("snapshot-"+sub, mapper.KeyName, args[0])}, nil
	case "materialize":
		if len(args) < 2 || len(args) > 3 {
			return nil, &commandError{usage: ":snap materialize <name> <type> [target]"}
		}
		msg := op("snapshot-materialize", mapper.KeyName, args[0], mapper.KeyType, args[1])
		if len(args) == 3 {
			msg[mapper.KeyTarget] = args[2]
		}
		return &command{msg: msg}, nil
	}
	return nil, &commandError{usage: usage}
}

func op(name string, kv ...string) wire.Message {
	msg := wire.Message{mapper.KeyOp: name}
	for i := 0; i+1 < len(kv); i += 2 {
		msg[kv[i]] = kv[i+1]
	}
	return msg
}

// splitImports accepts "a.B; c.*" as well as full "import a.B" lines.
func splitImports(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, "import ") {
			part = "import " + part
		}
		out = append(out, part)
	}
	return out
}
