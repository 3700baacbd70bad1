package loop

// Recorder keeps every tick it observes.
type Recorder struct {
	records []Record
}

func NewRecorder() *Recorder {
	return &Recorder{records: make([]Record, 0, 1024)}
}

func (r *Recorder) OnTick(rec Record) {
	r.records = append(r.records, rec)
}

func (r *Recorder) Records() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Recorder) Reset() {
	r.records = r.records[:0]
}
