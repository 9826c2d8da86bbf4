package track_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/robot"
	"github.com/san-kum/linebot/internal/sensing"
	"github.com/san-kum/linebot/internal/track"
)

func quietOptions() track.Options {
	opts := track.DefaultOptions()
	opts.Noise = 0
	opts.Variation = 0
	return opts
}

var _ = Describe("Course", func() {
	It("lists registered courses in order", func() {
		Expect(track.CourseNames()).To(Equal([]string{"curve", "straight", "zigzag"}))
	})

	It("rejects unknown courses", func() {
		_, err := track.GetCourse("figure8")
		Expect(err).To(MatchError(ContainSubstring("unknown course")))
	})

	It("starts a little way along the first segment", func() {
		start := track.Straight().Start()
		Expect(start.X).To(BeNumerically("~", 0, 1e-12))
		Expect(start.Y).To(BeNumerically("~", 0.06, 1e-12))
		Expect(start.Heading).To(BeNumerically("~", math.Pi/2, 1e-12))
	})

	It("measures distance to the centre line", func() {
		c := track.Straight()
		Expect(c.DistanceToLine(track.Point{X: 0.05, Y: 0.5})).To(BeNumerically("~", 0.05, 1e-12))
		Expect(c.DistanceToLine(track.Point{X: 0, Y: -0.1})).To(BeNumerically("~", 0.1, 1e-12))
		Expect(c.Length()).To(BeNumerically("~", 1.2, 1e-12))
	})

	It("places the junction bar past the last point", func() {
		c := track.Straight()
		Expect(c.InJunction(track.Point{X: 0, Y: 1.21})).To(BeTrue())
		Expect(c.InJunction(track.Point{X: 0.09, Y: 1.23})).To(BeTrue())
		Expect(c.InJunction(track.Point{X: 0, Y: 1.19})).To(BeFalse())
		Expect(c.InJunction(track.Point{X: 0.2, Y: 1.21})).To(BeFalse())
		Expect(c.InJunction(track.Point{X: 0, Y: 1.25})).To(BeFalse())
	})

	It("bends the curve course to the right", func() {
		c := track.Curve()
		last := c.Points[len(c.Points)-1]
		Expect(last.X).To(BeNumerically("~", 0.9, 1e-9))
		Expect(last.Y).To(BeNumerically("~", 0.9, 1e-9))
		Expect(c.Validate()).To(Succeed())
	})
})

var _ = Describe("Body", func() {
	body := track.Body{WheelBase: 0.1, MaxWheelSpeed: 1}

	It("drives straight with equal powers", func() {
		p := body.Step(track.Pose{Heading: 0}, 0.5, 0.5, 0.1)
		Expect(p.X).To(BeNumerically("~", 0.05, 1e-12))
		Expect(p.Y).To(BeNumerically("~", 0, 1e-12))
		Expect(p.Heading).To(Equal(0.0))
	})

	It("turns clockwise when the left wheel is faster", func() {
		p := body.Step(track.Pose{Heading: math.Pi / 2}, 0.3, 0.1, 0.1)
		Expect(p.Heading).To(BeNumerically("<", math.Pi/2))
		Expect(p.X).To(BeNumerically(">", 0))
	})

	It("spins in place with opposite powers", func() {
		p := body.Step(track.Pose{}, -0.2, 0.2, 0.1)
		Expect(p.X).To(BeNumerically("~", 0, 1e-12))
		Expect(p.Heading).To(BeNumerically("~", 0.4, 1e-12))
	})
})

var _ = Describe("Sim", func() {
	var (
		ctx context.Context
		sim *track.Sim
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		sim, err = track.NewSim(track.Straight(), quietOptions())
		Expect(err).NotTo(HaveOccurred())
	})

	It("refuses to read before calibration", func() {
		_, err := sim.Read(ctx)
		Expect(err).To(MatchError(robot.ErrNotCalibrated))
	})

	It("restores the pose after calibrating", func() {
		home := sim.Pose()
		Expect(sim.Calibrate(ctx)).To(Succeed())
		Expect(sim.Pose()).To(Equal(home))
	})

	It("reads a centred line symmetrically", func() {
		Expect(sim.Calibrate(ctx)).To(Succeed())
		r, err := sim.Read(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(r[2]).To(Equal(1000))
		Expect(r[1]).To(Equal(r[3]))
		Expect(r[1]).To(BeNumerically(">", sensing.DefaultLineThreshold))
		Expect(r[0]).To(BeNumerically("<", sensing.DefaultNoiseThreshold))
		Expect(r[4]).To(BeNumerically("<", sensing.DefaultNoiseThreshold))

		pos, detected := sensing.Estimate(r, robot.SensorReading{}, 0)
		Expect(detected).To(BeTrue())
		Expect(pos).To(BeNumerically("~", 0, 1e-9))
	})

	It("reports a positive position when the line is to the right", func() {
		Expect(sim.Calibrate(ctx)).To(Succeed())
		home := sim.Pose()
		sim.SetPose(track.Pose{X: home.X - 0.012, Y: home.Y, Heading: home.Heading})

		r, err := sim.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(r[3]).To(Equal(1000))

		pos, detected := sensing.Estimate(r, robot.SensorReading{}, 0)
		Expect(detected).To(BeTrue())
		Expect(pos).To(BeNumerically(">", 0.4))
	})

	It("sees nothing off the course", func() {
		Expect(sim.Calibrate(ctx)).To(Succeed())
		sim.SetPose(track.Pose{X: 0.5, Y: 0.5, Heading: math.Pi / 2})
		r, err := sim.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(robot.SensorReading{}))
	})

	It("moves only after power is applied", func() {
		Expect(sim.Calibrate(ctx)).To(Succeed())
		start := sim.Pose()

		_, err := sim.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.Pose()).To(Equal(start))

		Expect(sim.SetPower(robot.Left, 0.3)).To(Succeed())
		Expect(sim.SetPower(robot.Right, 0.3)).To(Succeed())
		_, err = sim.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.Pose().Y).To(BeNumerically("~", start.Y+0.003, 1e-9))
		Expect(sim.Time()).To(BeNumerically("~", 0.02, 1e-12))
	})

	It("halts both wheels and rejects unknown channels", func() {
		Expect(sim.SetPower(robot.Left, 0.2)).To(Succeed())
		Expect(sim.SetPower(robot.Right, 0.1)).To(Succeed())
		Expect(sim.Halt()).To(Succeed())
		Expect(sim.Power(robot.Left)).To(Equal(0.0))
		Expect(sim.Power(robot.Right)).To(Equal(0.0))

		Expect(sim.SetPower(robot.Channel(5), 1)).To(MatchError(robot.ErrInvalidChannel))
	})

	It("is reproducible for a seed", func() {
		opts := track.DefaultOptions()
		a, err := track.NewSim(track.Curve(), opts)
		Expect(err).NotTo(HaveOccurred())
		b, err := track.NewSim(track.Curve(), opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Calibrate(ctx)).To(Succeed())
		Expect(b.Calibrate(ctx)).To(Succeed())

		for i := 0; i < 5; i++ {
			ra, err := a.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			rb, err := b.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ra).To(Equal(rb))
		}
	})

	It("rejects invalid options", func() {
		opts := quietOptions()
		opts.Dt = 0
		_, err := track.NewSim(track.Straight(), opts)
		Expect(err).To(MatchError(robot.ErrInvalidConfig))
	})
})

var _ = Describe("Closed loop on the straight course", func() {
	It("drives to the junction and stops there", func() {
		sim, err := track.NewSim(track.Straight(), quietOptions())
		Expect(err).NotTo(HaveOccurred())

		cfg := loop.DefaultConfig()
		cfg.StartupDelay = 0
		cfg.MaxCycles = 3000

		d, err := loop.New(cfg, sim, sim)
		Expect(err).NotTo(HaveOccurred())

		res, err := d.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Reason).To(Equal(loop.Junction))
		Expect(res.Cycles).To(BeNumerically(">", 300))
		Expect(sim.Pose().Y).To(BeNumerically(">=", 1.15))
		Expect(sim.Pose().X).To(BeNumerically("~", 0, 1e-6))
	})
})
