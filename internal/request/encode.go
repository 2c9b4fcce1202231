package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeCommand renders c as a single wire message terminated by a newline.
// Environment entries are split at their first '='.
func EncodeCommand(c *CommandRequest) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	writeString(&buf, TypeCommand)
	buf.WriteString(`,"data":{"path":`)
	writeString(&buf, c.Path)

	buf.WriteString(`,"args":[`)
	for i, arg := range c.Argv {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, arg)
	}

	buf.WriteString(`],"env":{`)
	seen := make(map[string]bool, len(c.Envp))
	for i, entry := range c.Envp {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("encode command: environment entry %q has no '='", entry)
		}
		if seen[key] {
			return nil, fmt.Errorf("encode command: duplicate environment key %q", key)
		}
		seen[key] = true
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, key)
		buf.WriteByte(':')
		writeString(&buf, value)
	}
	buf.WriteString("}}}\n")
	return buf.Bytes(), nil
}

// writeString writes s as a JSON string literal.
func writeString(buf *bytes.Buffer, s string) {
	// Marshaling a string cannot fail.
	data, _ := json.Marshal(s)
	buf.Write(data)
}
