package loop

import (
	"go.uber.org/zap"

	"github.com/san-kum/balancer/internal/control"
)

// Plant is the engine boundary the driver consumes.
type Plant interface {
	// ReadState returns [actuator pos, actuator vel, pendulum angle, pendulum angular vel].
	ReadState() []float64
	// KeepAwake stops the engine deactivating idle bodies.
	KeepAwake()
	WriteCommand(u float64)
}

type Metric interface {
	Name() string
	Observe(t float64, d control.Decision)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(rec Record)
}

// Record is one tick as seen by the driver.
type Record struct {
	Time     float64
	Decision control.Decision
	Skipped  bool
	Reason   string
}

type Result struct {
	Ticks     int
	Skipped   int
	Saturated int
	Metrics   map[string]float64
	Records   []Record
}

type Driver struct {
	ctrl      *control.Controller
	plant     Plant
	log       *zap.Logger
	metrics   []Metric
	observers []Observer
	recorder  *Recorder

	ticks     int
	skipped   int
	saturated int
}

func New(ctrl *control.Controller, plant Plant, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		ctrl:      ctrl,
		plant:     plant,
		log:       log.Named("loop"),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// EnableRecording keeps every tick's Record for Result.
func (d *Driver) EnableRecording() {
	if d.recorder == nil {
		d.recorder = NewRecorder()
		d.observers = append(d.observers, d.recorder)
	}
}

// Tick runs one full normalize → evaluate → limit → write pipeline. On error
// nothing is written and the error is returned as is.
func (d *Driver) Tick(t float64) (control.Decision, error) {
	d.ticks++
	d.plant.KeepAwake()

	dec, err := d.ctrl.Decide(d.plant.ReadState())
	if err != nil {
		d.skipped++
		d.log.Warn("tick skipped", zap.Float64("t", t), zap.Error(err))
		d.notify(Record{Time: t, Skipped: true, Reason: err.Error()})
		return control.Decision{}, err
	}

	d.plant.WriteCommand(dec.Command)
	if dec.Saturated {
		d.saturated++
	}

	for _, m := range d.metrics {
		m.Observe(t, dec)
	}
	d.notify(Record{Time: t, Decision: dec})

	return dec, nil
}

// OnTick adapts Tick to the engine's per-tick callback.
func (d *Driver) OnTick(tick int, t float64) error {
	_, err := d.Tick(t)
	return err
}

func (d *Driver) notify(rec Record) {
	for _, o := range d.observers {
		o.OnTick(rec)
	}
}

// Reset clears counters, metrics and recorded ticks. Configuration is kept.
func (d *Driver) Reset() {
	d.ticks, d.skipped, d.saturated = 0, 0, 0
	for _, m := range d.metrics {
		m.Reset()
	}
	if d.recorder != nil {
		d.recorder.Reset()
	}
}

func (d *Driver) Result() *Result {
	res := &Result{
		Ticks:     d.ticks,
		Skipped:   d.skipped,
		Saturated: d.saturated,
		Metrics:   make(map[string]float64, len(d.metrics)),
	}
	for _, m := range d.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	if d.recorder != nil {
		res.Records = d.recorder.Records()
	}
	return res
}
