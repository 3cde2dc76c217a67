package reveal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Transform is a 2D transform expressed the way it is written on an element:
// translation in pixels, rotation in degrees, uniform scale. X and Y
// rotations are drawn as a foreshortening of the opposite axis.
type Transform struct {
	TranslateX, TranslateY     float64
	RotateX, RotateY, RotateZ float64
	Scale                      float64
}

// NeutralTransform is the identity transform.
var NeutralTransform = Transform{Scale: 1}

// IsNeutral reports whether t leaves the element where layout put it.
func (t Transform) IsNeutral() bool {
	return t == NeutralTransform
}

// String renders the transform expression, listing only non-identity
// components. The neutral transform renders as "none".
func (t Transform) String() string {
	var b strings.Builder
	part := func(name string, v float64, unit string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte('(')
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		b.WriteString(unit)
		b.WriteByte(')')
	}
	if t.TranslateX != 0 {
		part("translateX", t.TranslateX, "px")
	}
	if t.TranslateY != 0 {
		part("translateY", t.TranslateY, "px")
	}
	if t.RotateX != 0 {
		part("rotateX", t.RotateX, "deg")
	}
	if t.RotateY != 0 {
		part("rotateY", t.RotateY, "deg")
	}
	if t.RotateZ != 0 {
		part("rotateZ", t.RotateZ, "deg")
	}
	if t.Scale != 1 {
		part("scale", t.Scale, "")
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}

// Style is the engine-owned inline appearance of an element.
type Style struct {
	Opacity   float64
	Transform Transform
}

// NeutralStyle is a fully shown element with no transform.
func NeutralStyle() Style {
	return Style{Opacity: 1, Transform: NeutralTransform}
}

// Geometry is a snapshot of an element's hand-authored positioning.
type Geometry struct {
	OffsetX, OffsetY float64
}

// TransformSpec is the canonical input to ComputeTransform.
type TransformSpec struct {
	Distance           float64
	Origin             Origin
	Rotate             Vec3
	Scale              float64
	RespectPositioning bool
}

// Key returns the canonical cache key for the spec.
func (s TransformSpec) Key() string {
	return fmt.Sprintf("%g|%s|%g,%g,%g|%g|%t",
		s.Distance, s.Origin, s.Rotate.X, s.Rotate.Y, s.Rotate.Z, s.Scale, s.RespectPositioning)
}

// ComputeTransform returns the pre-reveal transform for spec. The geometry
// snapshot is consulted only when RespectPositioning is set: translation is
// then dropped along the origin axis if the element already carries an
// explicit offset on that axis. Rotation and scale always apply.
func ComputeTransform(spec TransformSpec, geo *Geometry) Transform {
	t := Transform{
		RotateX: spec.Rotate.X,
		RotateY: spec.Rotate.Y,
		RotateZ: spec.Rotate.Z,
		Scale:   spec.Scale,
	}
	switch spec.Origin {
	case OriginTop:
		t.TranslateY = -spec.Distance
	case OriginBottom:
		t.TranslateY = spec.Distance
	case OriginLeft:
		t.TranslateX = -spec.Distance
	case OriginRight:
		t.TranslateX = spec.Distance
	}
	if spec.RespectPositioning && geo != nil {
		if spec.Origin.horizontal() && geo.OffsetX != 0 {
			t.TranslateX = 0
		}
		if !spec.Origin.horizontal() && geo.OffsetY != 0 {
			t.TranslateY = 0
		}
	}
	return t
}

// --- Affine helpers used for drawing ---

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// localMatrix computes the affine matrix that draws a unit square as box
// with t applied around the box center. Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Scale(w, h) -> Translate(-w/2, -h/2) -> Scale(s) -> Rotate -> Translate(center + translate)
func localMatrix(t Transform, box Rect) [6]float64 {
	sx := t.Scale * math.Cos(t.RotateY*math.Pi/180)
	sy := t.Scale * math.Cos(t.RotateX*math.Pi/180)
	sin, cos := math.Sincos(t.RotateZ * math.Pi / 180)

	size := [6]float64{box.Width, 0, 0, box.Height, -box.Width / 2, -box.Height / 2}
	scale := [6]float64{sx, 0, 0, sy, 0, 0}
	rot := [6]float64{cos, sin, -sin, cos, 0, 0}
	c := box.Center()
	move := [6]float64{1, 0, 0, 1, c.X + t.TranslateX, c.Y + t.TranslateY}

	return multiplyAffine(move, multiplyAffine(rot, multiplyAffine(scale, size)))
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// unitAABB returns the bounding box of the unit square mapped through m.
func unitAABB(m [6]float64) Rect {
	x0, y0 := transformPoint(m, 0, 0)
	x1, y1 := transformPoint(m, 1, 0)
	x2, y2 := transformPoint(m, 1, 1)
	x3, y3 := transformPoint(m, 0, 1)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// VisualBounds returns the bounding box of the element as currently drawn,
// including the transform of its computed style.
func (e *Element) VisualBounds() Rect {
	return unitAABB(localMatrix(e.computed.Transform, e.Bounds()))
}
