package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is an orthographic view of the scene. With no rotation it shows
// the x/y plane, y pointing up.
type Camera struct {
	Center     r3.Vec
	Extent     float64
	RotX, RotY float64
	Zoom       float64
}

// NewCamera frames a cube of half-size extent around center.
func NewCamera(center r3.Vec, extent float64) *Camera {
	return &Camera{Center: center, Extent: extent, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	p = r3.Sub(p, c.Center)
	sy, cy := math.Sincos(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	sx, cx := math.Sincos(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// PixelsPerUnit is the projection scale on a sw x sh sub-pixel canvas.
func (c *Camera) PixelsPerUnit(sw, sh int) float64 {
	return float64(min(sw, sh)) / (2 * c.Extent) * c.Zoom
}

// Project maps a world point to sub-pixel coordinates. ok is false when the
// point falls outside the canvas.
func (c *Camera) Project(p r3.Vec, sw, sh int) (x, y int, ok bool) {
	q := c.rotate(p)
	s := c.PixelsPerUnit(sw, sh)
	x = int(math.Round(q.X*s)) + sw/2
	y = int(math.Round(-q.Y*s)) + sh/2
	return x, y, x >= 0 && x < sw && y >= 0 && y < sh
}

// Line draws the segment a-b on cv.
func (c *Camera) Line(cv *Canvas, a, b r3.Vec) {
	sw, sh := cv.PixelSize()
	x0, y0, _ := c.Project(a, sw, sh)
	x1, y1, _ := c.Project(b, sw, sh)
	cv.DrawLine(x0, y0, x1, y1)
}

// Ball draws a sphere of radius r centred on p as a circle.
func (c *Camera) Ball(cv *Canvas, p r3.Vec, r float64) {
	sw, sh := cv.PixelSize()
	x, y, ok := c.Project(p, sw, sh)
	if !ok {
		return
	}
	cv.DrawCircle(x, y, int(math.Round(r*c.PixelsPerUnit(sw, sh))))
}
