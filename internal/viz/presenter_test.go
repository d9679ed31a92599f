package viz_test

import (
	"bytes"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/san-kum/dynviz/internal/model"
	"github.com/san-kum/dynviz/internal/runmode"
	"github.com/san-kum/dynviz/internal/sim"
	"github.com/san-kum/dynviz/internal/viz"
)

func newPendulumHandle() *sim.Handle {
	desc, err := model.Load("pendulum")
	Expect(err).NotTo(HaveOccurred())
	s, err := sim.New(desc)
	Expect(err).NotTo(HaveOccurred())
	return sim.NewHandle(s)
}

func press(k string) viz.KeyInput {
	return viz.KeyInput{Key: viz.Key(k), State: viz.Pressed}
}

var _ = Describe("Presenter", func() {
	var (
		fc        *testingclock.FakeClock
		handle    *sim.Handle
		modes     *runmode.Shared
		presenter *viz.Presenter
		opts      viz.Options
	)

	BeforeEach(func() {
		fc = testingclock.NewFakeClock(time.Unix(0, 0))
		handle = newPendulumHandle()
		modes = runmode.NewShared(runmode.State{Mode: runmode.Paused, FrameRate: runmode.DefaultFrameRate})
		opts = viz.Options{Clock: fc}
	})

	JustBeforeEach(func() {
		protocol := runmode.NewProtocol(modes, true, nil)
		presenter = viz.NewPresenter(handle, modes, protocol, opts)
	})

	Describe("input", func() {
		It("toggles on space presses", func() {
			Expect(presenter.HandleEvent(press(" "))).To(BeFalse())
			Expect(modes.Mode()).To(Equal(runmode.RateLimited))

			Expect(presenter.HandleEvent(press(" "))).To(BeFalse())
			Expect(modes.Mode()).To(Equal(runmode.Paused))
		})

		It("ignores releases and repeats", func() {
			presenter.HandleEvent(viz.KeyInput{Key: " ", State: viz.Released})
			Expect(modes.Mode()).To(Equal(runmode.Paused))

			presenter.HandleEvent(viz.KeyInput{Key: " ", State: viz.Pressed, Repeat: true})
			Expect(modes.Mode()).To(Equal(runmode.Paused))
		})

		It("flips the rate-limit preference while running", func() {
			presenter.HandleEvent(press(" "))
			presenter.HandleEvent(press("u"))
			Expect(modes.Mode()).To(Equal(runmode.Uncapped))
			presenter.HandleEvent(press("u"))
			Expect(modes.Mode()).To(Equal(runmode.RateLimited))
		})

		It("ignores unbound keys", func() {
			Expect(presenter.HandleEvent(press("x"))).To(BeFalse())
			Expect(modes.Mode()).To(Equal(runmode.Paused))
		})

		DescribeTable("quit events",
			func(ev viz.Event) {
				Expect(presenter.HandleEvent(ev)).To(BeTrue())
			},
			Entry("escape", press("esc")),
			Entry("ctrl+c", press("ctrl+c")),
			Entry("window close", viz.CloseRequested{}),
		)
	})

	Describe("redraw", func() {
		It("publishes the frame rate and overlay", func() {
			fc.Step(20 * time.Millisecond)
			presenter.HandleEvent(viz.RedrawRequested{})

			Expect(presenter.FPS()).To(BeNumerically("~", 50, 1e-9))
			Expect(modes.Load().FrameRate).To(BeNumerically("~", 50, 1e-9))
			Expect(presenter.Frame()).To(ContainSubstring("FPS = 50.000"))
			Expect(presenter.Frame()).To(ContainSubstring("Time = 0.000"))
			Expect(presenter.Frame()).To(ContainSubstring("PAUSED"))
		})

		It("shows simulation time from the snapshot", func() {
			for i := 0; i < 5; i++ {
				_, err := handle.Step(nil)
				Expect(err).NotTo(HaveOccurred())
			}
			presenter.Redraw()
			Expect(presenter.Frame()).To(ContainSubstring("Time = 0.010"))

			snap, ok := presenter.Last()
			Expect(ok).To(BeTrue())
			Expect(snap.Steps).To(Equal(uint64(5)))
		})

		Context("with a callback and recorder", func() {
			var (
				calls    int
				recorded []uint64
			)

			BeforeEach(func() {
				calls, recorded = 0, nil
				opts.Callback = func() { calls++ }
				opts.RecordEvery = 2
				opts.Recorder = func(s sim.Snapshot) { recorded = append(recorded, s.Steps) }
			})

			It("calls back once per frame and samples every other frame", func() {
				for i := 0; i < 5; i++ {
					_, err := handle.Step(nil)
					Expect(err).NotTo(HaveOccurred())
					presenter.Redraw()
				}
				Expect(calls).To(Equal(5))
				Expect(recorded).To(Equal([]uint64{1, 3, 5}))
				Expect(presenter.Frames()).To(Equal(uint64(5)))
			})
		})

		It("freezes on the last frame once the simulation is poisoned", func() {
			handle.Step(nil)
			presenter.Redraw()

			Expect(func() {
				handle.With(func(*sim.Simulation) { panic("boom") })
			}).To(Panic())

			presenter.Redraw()
			Expect(presenter.Halted()).To(BeTrue())
			Expect(presenter.Frame()).To(ContainSubstring("physics halted"))
			Expect(presenter.Frame()).To(ContainSubstring("Time = 0.002"))
		})
	})

	Describe("quitting while the simulation is locked", func() {
		var (
			release chan struct{}
			events  chan viz.Event
			stopped chan struct{}
		)

		JustBeforeEach(func() {
			release = make(chan struct{})
			held := make(chan struct{})
			go handle.With(func(*sim.Simulation) {
				close(held)
				<-release
			})
			Eventually(held).Should(BeClosed())

			events = make(chan viz.Event, 4)
			stopped = make(chan struct{})
			go func() {
				defer close(stopped)
				for ev := range events {
					if presenter.HandleEvent(ev) {
						return
					}
				}
			}()
		})

		AfterEach(func() {
			select {
			case <-release:
			default:
				close(release)
			}
		})

		It("ends once the pending redraw gets the lock", func() {
			events <- viz.RedrawRequested{}
			events <- press("esc")

			Consistently(stopped, 50*time.Millisecond).ShouldNot(BeClosed())
			close(release)
			Eventually(stopped).Should(BeClosed())
		})

		It("ends immediately when no redraw is pending", func() {
			events <- press("esc")
			Eventually(stopped).Should(BeClosed())
		})
	})
})

var _ = Describe("Model", func() {
	var (
		modes *runmode.Shared
		m     tea.Model
	)

	BeforeEach(func() {
		modes = runmode.NewShared(runmode.State{Mode: runmode.Paused})
		protocol := runmode.NewProtocol(modes, true, nil)
		p := viz.NewPresenter(newPendulumHandle(), modes, protocol, viz.Options{})
		m = viz.NewModel(p)
	})

	It("schedules the first redraw", func() {
		Expect(m.Init()).NotTo(BeNil())
	})

	It("signals readiness from Init only", func() {
		calls := 0
		ready := m.(viz.Model).WithReady(func() { calls++ })
		Expect(calls).To(Equal(0))

		Expect(ready.Init()).NotTo(BeNil())
		Expect(calls).To(Equal(1))
	})

	It("translates key messages", func() {
		m, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		Expect(cmd).To(BeNil())
		Expect(modes.Mode()).To(Equal(runmode.RateLimited))

		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
		Expect(cmd).To(BeNil())
		Expect(modes.Mode()).To(Equal(runmode.Uncapped))
	})

	It("quits on escape", func() {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(tea.QuitMsg{}))
	})

	It("redraws on ticks and renders the frame", func() {
		m, cmd := m.Update(viz.TickMsg(time.Now()))
		Expect(cmd).NotTo(BeNil())
		Expect(m.View()).To(ContainSubstring("PENDULUM"))
		Expect(strings.Count(m.View(), "\n")).To(BeNumerically(">", 5))
	})

	It("resizes without a frame", func() {
		m, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
		Expect(cmd).To(BeNil())
		Expect(m.View()).To(BeEmpty())
	})
})

var _ = Describe("terminal size", func() {
	It("ignores writers that are not files", func() {
		var buf bytes.Buffer
		_, _, ok := viz.TerminalSize(&buf)
		Expect(ok).To(BeFalse())
	})

	It("ignores files that are not terminals", func() {
		f, err := os.CreateTemp(GinkgoT().TempDir(), "out")
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		_, _, ok := viz.TerminalSize(f)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Canvas", func() {
	It("packs dots into braille cells", func() {
		c := viz.NewCanvas(2, 1)
		c.Set(0, 0)
		c.Set(1, 3)
		Expect(c.String()).To(Equal(string([]rune{0x2800 | 0x01 | 0x80, 0x2800})))

		c.Unset(0, 0)
		Expect(c.String()).To(Equal(string([]rune{0x2800 | 0x80, 0x2800})))
	})

	It("ignores dots off the canvas", func() {
		c := viz.NewCanvas(1, 1)
		c.Set(-1, 0)
		c.Set(2, 0)
		c.Set(0, 4)
		Expect(c.String()).To(Equal(string(rune(0x2800))))
	})

	It("draws lines end to end", func() {
		c := viz.NewCanvas(4, 1)
		c.DrawLine(0, 0, 7, 0)
		for _, r := range c.String() {
			Expect(r & 0x09).To(Equal(rune(0x09)))
		}
	})
})

var _ = Describe("SceneRenderer", func() {
	It("keeps the canvas size for every kind", func() {
		r := viz.NewSceneRenderer(20, 6)
		for _, snap := range []sim.Snapshot{
			{Kind: "pendulum", State: []float64{0.5, 0}},
			{Kind: "double_pendulum", State: []float64{0.5, 1, 0, 0}},
			{Kind: "cartpole", State: []float64{1e9, 0, 0.2, 0}},
			{Kind: "spring_mass", State: []float64{0.1, -0.2, 0.3, 0, 0, 0}},
			{Kind: "unknown", State: []float64{1, -1}},
		} {
			lines := strings.Split(r.Render(snap), "\n")
			Expect(lines).To(HaveLen(6), snap.Kind)
			Expect([]rune(lines[0])).To(HaveLen(20), snap.Kind)
		}
	})
})
