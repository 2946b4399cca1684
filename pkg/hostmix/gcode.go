package hostmix

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type gcodeCommand struct {
	Name string
	Args map[string]string
	Raw  string
}

var reParenComment = regexp.MustCompile(`\([^)]*\)`)

// parseGCodeLine splits one line into a command name and letter/value
// arguments. Semicolon and parenthesized comments are stripped. A blank
// or comment-only line yields a nil command.
func parseGCodeLine(line string) (*gcodeCommand, error) {
	ln := strings.TrimSpace(line)
	if ln == "" {
		return nil, nil
	}
	if idx := strings.IndexByte(ln, ';'); idx >= 0 {
		ln = strings.TrimSpace(ln[:idx])
	}
	ln = strings.TrimSpace(reParenComment.ReplaceAllString(ln, " "))
	if ln == "" {
		return nil, nil
	}

	fields := strings.Fields(ln)
	if len(fields) == 0 {
		return nil, nil
	}
	name := strings.ToUpper(fields[0])
	args := map[string]string{}
	for _, f := range fields[1:] {
		if len(f) < 1 {
			continue
		}
		k := strings.ToUpper(f[:1])
		v := strings.TrimSpace(f[1:])
		args[k] = v
	}
	return &gcodeCommand{Name: name, Args: args, Raw: line}, nil
}

func hasArg(args map[string]string, key string) bool {
	_, ok := args[strings.ToUpper(key)]
	return ok
}

func floatArg(args map[string]string, key string, def float64) (float64, error) {
	raw, ok := args[strings.ToUpper(key)]
	if !ok {
		return def, nil
	}
	if raw == "" {
		return 0, fmt.Errorf("empty arg %s", key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("bad float %s=%q", key, raw)
	}
	return f, nil
}

func intArg(args map[string]string, key string, def int) (int, error) {
	raw, ok := args[strings.ToUpper(key)]
	if !ok {
		return def, nil
	}
	if raw == "" {
		return 0, fmt.Errorf("empty arg %s", key)
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("bad int %s=%q", key, raw)
	}
	return i, nil
}
