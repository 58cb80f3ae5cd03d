package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// ContactArgs splits "<name>, <phone>" on the last comma.
func (c Command) ContactArgs() (name, phone string, err error) {
	i := strings.LastIndex(c.Args, ",")
	if i < 0 {
		return "", "", fmt.Errorf("usage: :%s <name>, <phone>", c.Name)
	}
	return strings.TrimSpace(c.Args[:i]), strings.TrimSpace(c.Args[i+1:]), nil
}

// PageArg parses the page number argument.
func (c Command) PageArg() (int, error) {
	n, err := strconv.Atoi(c.Args)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("usage: :%s <n>", c.Name)
	}
	return n, nil
}

// FilterQuery is a parsed filter prompt.
type FilterQuery struct {
	Term   string
	Status string
}

// ParseFilter splits a filter prompt into a search term and an optional
// "status:<s>" token.
func ParseFilter(input string) FilterQuery {
	var q FilterQuery
	var terms []string
	for _, f := range strings.Fields(input) {
		if s, ok := strings.CutPrefix(strings.ToLower(f), "status:"); ok {
			q.Status = s
			continue
		}
		terms = append(terms, f)
	}
	q.Term = strings.Join(terms, " ")
	return q
}

// String renders q back into prompt syntax.
func (q FilterQuery) String() string {
	parts := make([]string, 0, 2)
	if q.Term != "" {
		parts = append(parts, q.Term)
	}
	if q.Status != "" {
		parts = append(parts, "status:"+q.Status)
	}
	return strings.Join(parts, " ")
}
