package request

import (
	"strings"
)

// TypeCommand is the type tag of CommandRequest.
const TypeCommand = "command"

// CommandRequest asks for a program to be run.
type CommandRequest struct {
	Path string
	Argv []string
	Envp []string // KEY=VALUE entries
}

// Type implements Request.
func (*CommandRequest) Type() string {
	return TypeCommand
}

// String renders the request for display, quoting arguments the way a
// shell would need them.
func (c *CommandRequest) String() string {
	if len(c.Argv) == 0 {
		return shellQuote(c.Path)
	}
	quoted := make([]string, len(c.Argv))
	for i, arg := range c.Argv {
		quoted[i] = shellQuote(arg)
	}
	line := strings.Join(quoted, " ")
	if c.Path != c.Argv[0] {
		line = shellQuote(c.Path) + ": " + line
	}
	return line
}

// commandKeys is the exact key set of a command's data object.
var commandKeys = []string{"path", "args", "env"}

// buildCommand builds a CommandRequest from the data object of a command
// message. It returns nil on any failure.
func buildCommand(data Value) (*CommandRequest, error) {
	obj, ok := data.(*Object)
	if !ok {
		return nil, fieldError("data", "expected object, got %s", kindOf(data))
	}
	if err := exactKeys(obj, "data", commandKeys); err != nil {
		return nil, err
	}

	args, _ := obj.Get("args")
	argv, err := buildArgv(args)
	if err != nil {
		return nil, err
	}

	env, _ := obj.Get("env")
	envp, err := buildEnvp(env)
	if err != nil {
		return nil, err
	}

	// path is checked last; argv and envp are simply dropped on failure.
	path, err := stringField(obj, "path", "data.path")
	if err != nil {
		return nil, err
	}

	return &CommandRequest{Path: path, Argv: argv, Envp: envp}, nil
}

// exactKeys checks that obj has every key in keys and nothing else.
func exactKeys(obj *Object, field string, keys []string) error {
	for _, k := range keys {
		if _, ok := obj.Get(k); !ok {
			return fieldError(field, "%s is required", k)
		}
	}
	if obj.Len() != len(keys) {
		for _, m := range obj.Members() {
			if !contains(keys, m.Key) {
				return fieldError(field, "additional property %s is not allowed", m.Key)
			}
		}
	}
	return nil
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// shellQuote quotes a single argument for display.
// Arguments made only of safe characters are returned unchanged; others are
// wrapped in single quotes, with embedded single quotes written as '\''.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}

	needsQuote := false
	for _, c := range s {
		if !isSafeChar(c) {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}

	var b strings.Builder
	b.WriteByte('\'')
	for _, c := range s {
		if c == '\'' {
			b.WriteString(`'\''`)
		} else {
			b.WriteRune(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// isSafeChar reports whether c can appear unquoted.
func isSafeChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '/' || c == ':' || c == '@' || c == '+' || c == '='
}
