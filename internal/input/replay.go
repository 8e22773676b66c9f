package input

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ringline/racecore/internal/vehicle"
)

// ReplaySource plays back recorded held-state frames, one per tick. Once the
// recording runs out the last frame is repeated.
type ReplaySource struct {
	frames []vehicle.Intent
	pos    int
}

// LoadReplay reads a JSON Lines recording from path.
func LoadReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()
	return ReadReplay(f)
}

// ReadReplay parses one intent object per line. Blank lines are skipped.
func ReadReplay(r io.Reader) (*ReplaySource, error) {
	var frames []vehicle.Intent
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var in vehicle.Intent
		if err := json.Unmarshal(b, &in); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", line, err)
		}
		frames = append(frames, in)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return &ReplaySource{frames: frames}, nil
}

// Len is the number of recorded frames.
func (r *ReplaySource) Len() int { return len(r.frames) }

// Done reports whether every recorded frame has been played.
func (r *ReplaySource) Done() bool { return r.pos >= len(r.frames) }

func (r *ReplaySource) Next() vehicle.Intent {
	if len(r.frames) == 0 {
		return vehicle.Intent{}
	}
	if r.pos >= len(r.frames) {
		return r.frames[len(r.frames)-1]
	}
	in := r.frames[r.pos]
	r.pos++
	return in
}

// Recorder writes held-state frames in the format ReadReplay expects.
type Recorder struct {
	enc *json.Encoder
}

func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w)}
}

func (r *Recorder) Record(in vehicle.Intent) error {
	return r.enc.Encode(in)
}
