package blobstore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// EventsKey is where the event-index blob of a sample cluster lives.
func EventsKey(sampleClusterID uuid.UUID) string {
	return "sample_cluster/" + sampleClusterID.String() + "/events.txt"
}

// EncodeEvents writes one index per line in the given order.
func EncodeEvents(events []int64) []byte {
	var buf bytes.Buffer
	buf.Grow(len(events) * 7)
	for _, e := range events {
		buf.WriteString(strconv.FormatInt(e, 10))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// DecodeEvents reads a blob written by EncodeEvents. Blank lines are skipped.
func DecodeEvents(r io.Reader) ([]int64, error) {
	sc := bufio.NewScanner(r)
	var out []int64
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("events line %d: %w", line, err)
		}
		out = append(out, n)
	}
	return out, sc.Err()
}
