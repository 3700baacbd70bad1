package loop_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/balancer/internal/control"
	"github.com/san-kum/balancer/internal/dynamo"
	"github.com/san-kum/balancer/internal/engine"
	"github.com/san-kum/balancer/internal/integrators"
	"github.com/san-kum/balancer/internal/loop"
	"github.com/san-kum/balancer/internal/physics"
)

type fakePlant struct {
	readings [][]float64
	calls    []string
	writes   []float64
}

func (p *fakePlant) ReadState() []float64 {
	p.calls = append(p.calls, "read")
	r := p.readings[0]
	if len(p.readings) > 1 {
		p.readings = p.readings[1:]
	}
	return r
}

func (p *fakePlant) KeepAwake() { p.calls = append(p.calls, "wake") }

func (p *fakePlant) WriteCommand(u float64) {
	p.calls = append(p.calls, "write")
	p.writes = append(p.writes, u)
}

type countingMetric struct{ n int }

func (m *countingMetric) Name() string                          { return "count" }
func (m *countingMetric) Observe(t float64, d control.Decision) { m.n++ }
func (m *countingMetric) Value() float64                        { return float64(m.n) }
func (m *countingMetric) Reset()                                { m.n = 0 }

func bangBang() *control.Controller {
	cfg := control.ControllerConfig{TargetAngle: 180, Gain: 50, Bound: 1000}
	ctrl, err := control.NewController(control.KindThreshold, cfg, control.Normalizer{})
	Expect(err).NotTo(HaveOccurred())
	return ctrl
}

var _ = Describe("Driver", func() {
	var (
		plant  *fakePlant
		driver *loop.Driver
		metric *countingMetric
	)

	BeforeEach(func() {
		plant = &fakePlant{}
		metric = &countingMetric{}
		driver = loop.New(bangBang(), plant, nil)
		driver.AddMetric(metric)
		driver.EnableRecording()
	})

	Context("with a well-formed reading", func() {
		BeforeEach(func() {
			plant.readings = [][]float64{{0.0, 0.0, 0.1, -0.0}}
		})

		It("writes the limited command", func() {
			dec, err := driver.Tick(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dec.Command).To(Equal(50.0))
			Expect(plant.writes).To(Equal([]float64{50.0}))
		})

		It("keeps the bodies awake before reading", func() {
			_, _ = driver.Tick(0)
			_, _ = driver.Tick(0.01)
			Expect(plant.calls).To(Equal([]string{"wake", "read", "write", "wake", "read", "write"}))
		})

		It("feeds metrics and the recorder", func() {
			for i := 0; i < 3; i++ {
				_, _ = driver.Tick(float64(i) * 0.01)
			}
			res := driver.Result()
			Expect(res.Ticks).To(Equal(3))
			Expect(res.Skipped).To(BeZero())
			Expect(res.Metrics).To(HaveKeyWithValue("count", 3.0))
			Expect(res.Records).To(HaveLen(3))
			Expect(res.Records[2].Time).To(BeNumerically("~", 0.02, 1e-12))
		})
	})

	Context("with a malformed reading", func() {
		DescribeTable("skips the tick without writing",
			func(raw []float64) {
				plant.readings = [][]float64{raw}
				for i := 0; i < 3; i++ {
					_, err := driver.Tick(0)
					Expect(err).To(MatchError(control.ErrInvalidObservationShape))
				}
				Expect(plant.writes).To(BeEmpty())
				Expect(metric.n).To(BeZero())

				res := driver.Result()
				Expect(res.Skipped).To(Equal(3))
				Expect(res.Records).To(HaveLen(3))
				Expect(res.Records[0].Skipped).To(BeTrue())
				Expect(res.Records[0].Reason).To(ContainSubstring("got %d values", len(raw)))
			},
			Entry("three values", []float64{0, 0, 0.1}),
			Entry("five values", []float64{0, 0, 0.1, 0, 0}),
			Entry("empty", []float64{}),
		)

		It("recovers on the next good reading", func() {
			plant.readings = [][]float64{{0, 0, 0.1}, {0, 0, -0.1, 0}}
			_, err := driver.Tick(0)
			Expect(err).To(HaveOccurred())

			dec, err := driver.Tick(0.01)
			Expect(err).NotTo(HaveOccurred())
			Expect(dec.Command).To(Equal(-50.0))
			Expect(plant.writes).To(Equal([]float64{-50.0}))
		})
	})

	It("counts saturated ticks", func() {
		cfg := control.ControllerConfig{Gain: 2, Bound: 1000}
		ctrl, err := control.NewController(control.KindZoned, cfg, control.Normalizer{})
		Expect(err).NotTo(HaveOccurred())

		plant.readings = [][]float64{{5, 0, 0, 0}}
		d := loop.New(ctrl, plant, nil)
		dec, err := d.Tick(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dec.Raw).To(Equal(-2000.0))
		Expect(dec.Command).To(Equal(-1000.0))
		Expect(d.Result().Saturated).To(Equal(1))
	})

	It("resets counters and records", func() {
		plant.readings = [][]float64{{0, 0, 0.1, 0}}
		_, _ = driver.Tick(0)
		driver.Reset()

		res := driver.Result()
		Expect(res.Ticks).To(BeZero())
		Expect(res.Records).To(BeEmpty())
		Expect(res.Metrics).To(HaveKeyWithValue("count", 0.0))
	})
})

var _ = Describe("Driver against the simulated engine", func() {
	It("balances the cart-pole with LQR", func() {
		cfg := control.ControllerConfig{Bound: 50, Gains: control.DefaultCartPoleGains}
		ctrl, err := control.NewController(control.KindLQR, cfg, control.CalibrationFor(control.Upright, control.Radians))
		Expect(err).NotTo(HaveOccurred())

		world, err := engine.New(physics.NewCartPole(), integrators.NewRK4(), dynamo.State{0, 0, 0.1, 0}, engine.DefaultOptions(), nil)
		Expect(err).NotTo(HaveOccurred())

		driver := loop.New(ctrl, world, nil)
		Expect(world.Run(context.Background(), 1000, driver.OnTick)).To(Succeed())

		x := world.State()
		Expect(math.Abs(x[2])).To(BeNumerically("<", 0.05))
		Expect(driver.Result().Skipped).To(BeZero())
	})

	It("skips faulty reads end to end and keeps running", func() {
		opts := engine.DefaultOptions()
		opts.Faults.DropEvery = 4

		world, err := engine.New(physics.NewPlatform(), integrators.NewRK4(), dynamo.State{0, 0, 0.1, 0}, opts, nil)
		Expect(err).NotTo(HaveOccurred())

		driver := loop.New(bangBang(), world, nil)
		Expect(world.Run(context.Background(), 100, driver.OnTick)).To(Succeed())

		res := driver.Result()
		Expect(res.Ticks).To(Equal(100))
		Expect(res.Skipped).To(Equal(25))
	})
})
