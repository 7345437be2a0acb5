package shapes

// Point is a plain struct.
//
//annogen:builder name=PointBuilder
type Point struct {
	X int
	Y int
	//annogen:builder skip
	cache string
}

//annogen:enum
type Color string

const (
	Red   Color = "red"
	Green Color = "green"
)

//annogen:builder
type Box[T any] struct {
	Items []T
	Label *string
}

// Area has a directive on a method.
//
//annogen:trace level=debug
func (p *Point) Area() int { return p.X * p.Y }

//annogen:builder "broken
type Broken struct{}

type (
	//annogen:enum
	Size int

	Shape interface{ Area() int }
)
