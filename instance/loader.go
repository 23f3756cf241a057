package instance

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var ErrMalformed = errors.New("malformed instance")

func malformed(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, a...))
}

// Load reads an instance file: the task count on the first line, then one
// `processTime releaseTime deadline` line per task.
func Load(path string) (TaskList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open instance: %w", err)
	}
	defer file.Close()

	tasks, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

func Parse(r io.Reader) (TaskList, error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	nextLine := func() ([]string, bool) {
		for scanner.Scan() {
			lineNo++
			fields := strings.Fields(scanner.Text())
			if len(fields) != 0 {
				return fields, true
			}
		}
		return nil, false
	}

	header, ok := nextLine()
	if !ok {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, malformed("missing task count")
	}
	if len(header) != 1 {
		return nil, malformed("line %d: expected a single task count", lineNo)
	}
	n, err := strconv.Atoi(header[0])
	if err != nil || n < 0 {
		return nil, malformed("line %d: invalid task count %q", lineNo, header[0])
	}

	// the count is only a claim until the lines are read
	tasks := make(TaskList, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		fields, ok := nextLine()
		if !ok {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, malformed("expected %d tasks, found %d", n, i)
		}
		if len(fields) != 3 {
			return nil, malformed("line %d: expected 3 integers, found %d fields", lineNo, len(fields))
		}
		var vals [3]int
		for j, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, malformed("line %d: %q is not an integer", lineNo, f)
			}
			vals[j] = v
		}
		t := Task{Id: i, ProcessTime: vals[0], ReleaseTime: vals[1], Deadline: vals[2]}
		if err := t.check(); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, scanner.Err()
}

// WriteStarts writes one start time per line, in task id order.
func WriteStarts(w io.Writer, starts []int) error {
	bw := bufio.NewWriter(w)
	for _, s := range starts {
		if _, err := fmt.Fprintln(bw, s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func WriteInfeasible(w io.Writer) error {
	_, err := fmt.Fprintln(w, -1)
	return err
}
