// Package host exposes a controller to an external simulator over a line
// protocol: one observation per input line, one command per output line.
package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/san-kum/balancer/internal/control"
)

// Commander is the single entry point a host calls per step.
type Commander interface {
	Command(raw []float64) (float64, error)
}

// ParseObservation reads comma or whitespace separated floats. The count is
// not checked here; the controller reports a wrong shape.
func ParseObservation(line string) ([]float64, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	raw := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		raw[i] = v
	}
	return raw, nil
}

// Format renders a command, or its discrete action when discrete is set.
func Format(cmd float64, discrete bool) string {
	if discrete {
		return strconv.Itoa(control.DiscreteAction(cmd))
	}
	return strconv.FormatFloat(cmd, 'g', -1, 64)
}

type Stats struct {
	Lines  int
	Errors int
}

// Serve answers every non-blank line of r on w until r is exhausted or ctx
// is done. A line that cannot be evaluated is answered with "error: ..." and
// serving continues.
func Serve(ctx context.Context, r io.Reader, w io.Writer, c Commander, discrete bool, log *zap.Logger) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("host")

	var stats Stats
	sc := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		stats.Lines++

		out, err := answer(c, line, discrete)
		if err != nil {
			stats.Errors++
			log.Warn("observation rejected", zap.Int("line", stats.Lines), zap.Error(err))
			out = "error: " + err.Error()
		}
		if _, err := fmt.Fprintln(bw, out); err != nil {
			return stats, err
		}
		// Hosts wait for each answer before stepping.
		if err := bw.Flush(); err != nil {
			return stats, err
		}
	}
	return stats, sc.Err()
}

func answer(c Commander, line string, discrete bool) (string, error) {
	raw, err := ParseObservation(line)
	if err != nil {
		return "", err
	}
	cmd, err := c.Command(raw)
	if err != nil {
		return "", err
	}
	return Format(cmd, discrete), nil
}
