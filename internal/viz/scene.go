package viz

import (
	"math"

	"github.com/san-kum/dynviz/internal/sim"
)

const (
	defaultSceneCols = 60
	defaultSceneRows = 20
	trailLength      = 120
)

// Renderer turns a snapshot into a frame. Implementations are used only
// from the presentation goroutine.
type Renderer interface {
	Render(snap sim.Snapshot) string
}

// Resizer is implemented by renderers that follow the viewport.
type Resizer interface {
	Resize(cols, rows int)
}

type point struct{ x, y int }

// SceneRenderer draws the built-in models on a braille canvas. Unknown
// kinds are drawn as a bar per state component.
type SceneRenderer struct {
	canvas *Canvas
	trail  []point
	kind   string
}

func NewSceneRenderer(cols, rows int) *SceneRenderer {
	if cols <= 0 {
		cols = defaultSceneCols
	}
	if rows <= 0 {
		rows = defaultSceneRows
	}
	return &SceneRenderer{
		canvas: NewCanvas(cols, rows),
		trail:  make([]point, 0, trailLength),
	}
}

func (r *SceneRenderer) Resize(cols, rows int) {
	r.canvas.Resize(cols, rows)
	r.trail = r.trail[:0]
}

func (r *SceneRenderer) Render(snap sim.Snapshot) string {
	if snap.Kind != r.kind {
		r.kind = snap.Kind
		r.trail = r.trail[:0]
	}
	r.canvas.Clear()

	x := snap.State
	if !x.IsValid() {
		return r.canvas.String()
	}
	switch {
	case snap.Kind == "pendulum" && len(x) >= 2:
		r.drawPendulum(x[0])
	case snap.Kind == "double_pendulum" && len(x) >= 4:
		r.drawDoublePendulum(x[0], x[1])
	case snap.Kind == "cartpole" && len(x) >= 4:
		r.drawCartpole(x[0], x[2])
	case snap.Kind == "spring_mass" && len(x) >= 2:
		r.drawChain(x[:len(x)/2])
	case (snap.Kind == "van_der_pol" || snap.Kind == "duffing") && len(x) >= 2:
		r.drawPhase(x[0]/3, x[1]/3)
	case snap.Kind == "lorenz" && len(x) >= 3:
		r.drawPhase(x[0]/25, (x[2]-25)/25)
	default:
		r.drawBars(x)
	}
	return r.canvas.String()
}

func (r *SceneRenderer) remember(p point) {
	if len(r.trail) == trailLength {
		copy(r.trail, r.trail[1:])
		r.trail = r.trail[:trailLength-1]
	}
	r.trail = append(r.trail, p)
	for _, q := range r.trail {
		r.canvas.Set(q.x, q.y)
	}
}

func (r *SceneRenderer) drawPendulum(theta float64) {
	_, h := r.canvas.Dots()
	cx, cy := r.pivot()
	length := float64(h) * 0.75
	bx, by := cx+int(length*math.Sin(theta)), cy+int(length*math.Cos(theta))

	r.remember(point{bx, by})
	r.canvas.Set(cx, cy)
	r.canvas.DrawLine(cx, cy, bx, by)
	r.canvas.Blob(bx, by, 1)
}

func (r *SceneRenderer) drawDoublePendulum(t1, t2 float64) {
	_, h := r.canvas.Dots()
	cx, cy := r.pivot()
	length := float64(h) * 0.4
	b1x, b1y := cx+int(length*math.Sin(t1)), cy+int(length*math.Cos(t1))
	b2x, b2y := b1x+int(length*math.Sin(t2)), b1y+int(length*math.Cos(t2))

	r.remember(point{b2x, b2y})
	r.canvas.DrawLine(cx, cy, b1x, b1y)
	r.canvas.Blob(b1x, b1y, 1)
	r.canvas.DrawLine(b1x, b1y, b2x, b2y)
	r.canvas.Blob(b2x, b2y, 1)
}

func (r *SceneRenderer) drawCartpole(pos, theta float64) {
	w, h := r.canvas.Dots()
	ground := h - 8
	cart := w/2 + clampDots(pos*20, w)

	r.canvas.DrawLine(0, ground+4, w, ground+4)
	for dy := 0; dy < 4; dy++ {
		r.canvas.DrawLine(cart-6, ground+dy, cart+6, ground+dy)
	}
	pole := float64(h) * 0.6
	px, py := cart+int(pole*math.Sin(theta)), ground-int(pole*math.Cos(theta))
	r.canvas.DrawLine(cart, ground, px, py)
	r.canvas.Blob(px, py, 1)
}

// drawChain lays the masses out evenly between two walls, offset by their
// displacements.
func (r *SceneRenderer) drawChain(pos []float64) {
	w, h := r.canvas.Dots()
	cy := h / 2
	left, right := 4, w-4
	r.canvas.DrawLine(left, cy-10, left, cy+10)
	if len(pos) > 1 {
		r.canvas.DrawLine(right, cy-10, right, cy+10)
	}

	gap := float64(right-left) / float64(len(pos)+1)
	prev := left
	for i, p := range pos {
		mx := left + clampDots(gap*float64(i+1)+p*gap/4, w)
		zigzag(r.canvas, prev, mx-4, cy)
		r.canvas.Blob(mx, cy, 3)
		prev = mx + 4
	}
	if len(pos) > 1 {
		zigzag(r.canvas, prev, right, cy)
	}
}

func zigzag(c *Canvas, x0, x1, y int) {
	const coils, amp = 8, 4
	if x1 <= x0 {
		c.DrawLine(x0, y, x1, y)
		return
	}
	step := float64(x1-x0) / coils
	px, py := x0, y
	for i := 1; i < coils; i++ {
		cx := x0 + int(float64(i)*step)
		cy := y + amp
		if i%2 == 0 {
			cy = y - amp
		}
		c.DrawLine(px, py, cx, cy)
		px, py = cx, cy
	}
	c.DrawLine(px, py, x1, y)
}

// drawPhase plots a trail in the plane, with (-1,-1)..(1,1) filling the
// canvas.
func (r *SceneRenderer) drawPhase(a, b float64) {
	w, h := r.canvas.Dots()
	cx, cy := w/2, h/2
	r.canvas.DrawLine(0, cy, w-1, cy)
	r.canvas.DrawLine(cx, 0, cx, h-1)

	px := cx + clampDots(a*float64(cx-2), cx-1)
	py := cy - clampDots(b*float64(cy-2), cy-1)
	r.remember(point{px, py})
	r.canvas.Blob(px, py, 1)
}

func (r *SceneRenderer) drawBars(x []float64) {
	if len(x) == 0 {
		return
	}
	w, h := r.canvas.Dots()
	cy := h / 2
	bar, gap := 6, 4
	start := (w - len(x)*(bar+gap)) / 2
	for i, v := range x {
		top := cy - clampDots(v*10, cy)
		bx := start + i*(bar+gap)
		for dx := 0; dx < bar; dx++ {
			r.canvas.DrawLine(bx+dx, cy, bx+dx, top)
		}
	}
}

// clampDots converts v to dots, limited to [-lim, lim] so that runaway
// states still draw in bounded time.
func clampDots(v float64, lim int) int {
	return int(math.Max(-float64(lim), math.Min(float64(lim), v)))
}

func (r *SceneRenderer) pivot() (int, int) {
	w, _ := r.canvas.Dots()
	return w / 2, 8
}
