package sched_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/san-kum/dynviz/internal/dynamo"
	"github.com/san-kum/dynviz/internal/runmode"
	"github.com/san-kum/dynviz/internal/sched"
	"github.com/san-kum/dynviz/internal/sim"
	"github.com/san-kum/dynviz/internal/telemetry"
)

const timestep = 2 * time.Millisecond

var _ = Describe("Accumulate", func() {
	DescribeTable("whole timesteps in an interval",
		func(elapsed time.Duration, wantSteps int, wantAdvance time.Duration) {
			n, adv := sched.Accumulate(elapsed, timestep)
			Expect(n).To(Equal(wantSteps))
			Expect(adv).To(Equal(wantAdvance))
		},
		Entry("nothing elapsed", time.Duration(0), 0, time.Duration(0)),
		Entry("under one step", 1999*time.Microsecond, 0, time.Duration(0)),
		Entry("exactly one step", 2*time.Millisecond, 1, 2*time.Millisecond),
		Entry("remainder kept", 7*time.Millisecond, 3, 6*time.Millisecond),
		Entry("clock went backwards", -time.Second, 0, time.Duration(0)),
	)

	DescribeTable("splitting an interval across polls takes the same steps",
		func(chunks ...time.Duration) {
			var (
				now, baseline time.Duration
				total         int
				sum           time.Duration
			)
			for _, c := range chunks {
				now += c
				sum += c
				n, adv := sched.Accumulate(now-baseline, timestep)
				total += n
				baseline += adv
			}
			n, _ := sched.Accumulate(sum, timestep)
			Expect(total).To(Equal(n))
			Expect(now - baseline).To(BeNumerically("<", timestep))
		},
		Entry("even polls", 2*time.Millisecond, 2*time.Millisecond, 2*time.Millisecond),
		Entry("ragged polls", 1500*time.Microsecond, 700*time.Microsecond, 3300*time.Microsecond, 900*time.Microsecond),
		Entry("one long poll", 17*time.Millisecond),
	)

	It("converts seconds to a rounded duration", func() {
		Expect(sched.Timestep(0.002)).To(Equal(2 * time.Millisecond))
		Expect(sched.Timestep(1.0 / 3)).To(Equal(333333333 * time.Nanosecond))
	})
})

var _ = Describe("Scheduler", func() {
	var (
		fc       *testingclock.FakeClock
		handle   *sim.Handle
		modes    *runmode.Shared
		protocol *runmode.Protocol
		metrics  *telemetry.Metrics
		s        *sched.Scheduler
	)

	build := func(rateLimited bool) {
		protocol = runmode.NewProtocol(modes, rateLimited, nil)
		s = sched.New(handle, modes, nil, timestep, sched.Options{Clock: fc, Metrics: metrics})
	}

	BeforeEach(func() {
		fc = testingclock.NewFakeClock(time.Unix(0, 0))
		handle = newHandle(timestep.Seconds())
		modes = runmode.NewShared(runmode.State{Mode: runmode.Paused, FrameRate: runmode.DefaultFrameRate})
		metrics = telemetry.New()
	})

	Context("paused", func() {
		BeforeEach(func() { build(true) })

		It("never steps and polls at the pause interval", func() {
			for i := 0; i < 10; i++ {
				Expect(s.Iterate()).To(Succeed())
			}
			Expect(stepsTaken(handle)).To(BeZero())
			Expect(fc.Since(time.Unix(0, 0))).To(Equal(10 * sched.DefaultPausePoll))
		})

		It("does not replay the paused interval on resume", func() {
			for i := 0; i < 1000; i++ {
				Expect(s.Iterate()).To(Succeed())
			}
			protocol.Toggle()
			Expect(modes.Mode()).To(Equal(runmode.RateLimited))

			Expect(s.Iterate()).To(Succeed())
			Expect(stepsTaken(handle)).To(BeZero())
		})
	})

	Context("rate limited", func() {
		BeforeEach(func() { build(true) })

		It("catches up on every whole timestep since the baseline", func() {
			Expect(s.Iterate()).To(Succeed())
			protocol.Toggle()

			fc.Step(9 * time.Millisecond)
			Expect(s.Iterate()).To(Succeed())
			Expect(stepsTaken(handle)).To(Equal(uint64(5)))

			Expect(s.Iterate()).To(Succeed())
			Expect(stepsTaken(handle)).To(Equal(uint64(6)))
		})

		It("carries the remainder between polls", func() {
			Expect(s.Iterate()).To(Succeed())
			protocol.Toggle()

			fc.Step(2 * time.Millisecond)
			Expect(s.Iterate()).To(Succeed())
			Expect(stepsTaken(handle)).To(Equal(uint64(1)))

			fc.Step(time.Millisecond)
			Expect(s.Iterate()).To(Succeed())
			Expect(stepsTaken(handle)).To(Equal(uint64(3)))
		})

		It("keeps simulation time in step with wall time", func() {
			Expect(s.Iterate()).To(Succeed())
			protocol.Toggle()
			for i := 0; i < 100; i++ {
				Expect(s.Iterate()).To(Succeed())
			}
			snap, err := handle.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Time).To(BeNumerically("~", 99*timestep.Seconds(), 1e-12))
		})
	})

	Context("uncapped", func() {
		BeforeEach(func() { build(false) })

		It("steps once per iteration without sleeping", func() {
			protocol.Toggle()
			Expect(modes.Mode()).To(Equal(runmode.Uncapped))

			for i := 0; i < 3; i++ {
				Expect(s.Iterate()).To(Succeed())
			}
			Expect(stepsTaken(handle)).To(Equal(uint64(3)))
			Expect(fc.Since(time.Unix(0, 0))).To(BeZero())
		})

		It("hands rate limiting a fresh baseline", func() {
			protocol.Toggle()
			for i := 0; i < 3; i++ {
				fc.Step(5 * time.Millisecond)
				Expect(s.Iterate()).To(Succeed())
			}

			Expect(protocol.FlipPreference()).To(Equal(runmode.RateLimited))
			Expect(s.Iterate()).To(Succeed())
			Expect(stepsTaken(handle)).To(Equal(uint64(3)))

			Expect(s.Iterate()).To(Succeed())
			Expect(stepsTaken(handle)).To(Equal(uint64(4)))
		})
	})

	Context("failures", func() {
		BeforeEach(func() {
			modes.SetMode(runmode.Uncapped)
		})

		It("stops on a poisoned handle", func() {
			build(false)
			Expect(func() {
				handle.With(func(*sim.Simulation) { panic("boom") })
			}).To(Panic())

			err := s.Run(context.Background())
			Expect(err).To(MatchError(sim.ErrPoisoned))
		})

		It("turns a panicking step into an error", func() {
			law := sim.ControlLawFunc(func(sim.Reader) dynamo.Control {
				return dynamo.Control{1, 2}
			})
			s = sched.New(handle, modes, law, timestep, sched.Options{Clock: fc})

			err := s.Run(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
			Expect(handle.Poisoned()).To(BeTrue())
		})
	})

	It("returns nil once the context is cancelled", func() {
		modes.SetMode(runmode.Uncapped)
		s = sched.New(handle, modes, nil, timestep, sched.Options{})

		ctx, cancel := context.WithCancel(context.Background())
		done := s.Start(ctx)
		Eventually(func() uint64 { return stepsTaken(handle) }).Should(BeNumerically(">", 10))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("runs headless regardless of the mode record", func() {
		s = sched.New(handle, modes, nil, timestep, sched.Options{Metrics: metrics})

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- s.RunHeadless(ctx) }()

		Eventually(func() uint64 { return stepsTaken(handle) }).Should(BeNumerically(">", 10))
		Expect(modes.Mode()).To(Equal(runmode.Paused))

		cancel()
		Eventually(errc).Should(Receive(BeNil()))
	})
})
