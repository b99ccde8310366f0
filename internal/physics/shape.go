package physics

import "fmt"

// Shape selects the container of the sphere scene.
type Shape int

const (
	ShapeCube Shape = iota
	ShapeSphere
)

func (s Shape) String() string {
	switch s {
	case ShapeCube:
		return "cube"
	case ShapeSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

func ParseShape(name string) (Shape, error) {
	switch name {
	case "cube":
		return ShapeCube, nil
	case "sphere":
		return ShapeSphere, nil
	default:
		return 0, fmt.Errorf("unknown shape: %s", name)
	}
}

// Toggle returns the other container shape.
func (s Shape) Toggle() Shape {
	if s == ShapeCube {
		return ShapeSphere
	}
	return ShapeCube
}

func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(b []byte) error {
	v, err := ParseShape(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
