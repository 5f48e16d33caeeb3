package lint

import (
	"bytes"
	"io"
)

// CountLines counts newline-terminated lines plus a trailing partial line.
// An empty input has 0 lines; a trailing newline adds no phantom line.
func CountLines(data []byte) int {
	count := bytes.Count(data, []byte("\n"))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		count++
	}
	return count
}

// CountReader counts lines like CountLines without buffering the whole input.
func CountReader(r io.Reader) (int, error) {
	buf := make([]byte, 32*1024)
	count := 0
	var last byte
	seen := false
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte("\n"))
			last = buf[n-1]
			seen = true
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if seen && last != '\n' {
		count++
	}
	return count, nil
}
