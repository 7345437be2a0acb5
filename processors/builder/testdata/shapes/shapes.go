package shapes

import "time"

//annogen:builder name=PointMaker
type Point struct {
	X int
	Y int
	//annogen:builder skip
	cache string
}

//annogen:builder
type Box[T any] struct {
	Items []T
	Label *string
}

//annogen:builder
type Event struct {
	At   time.Time
	Tags map[string]bool
}

//annogen:builder name=bad-name
type Bad struct{}

//annogen:builder
type Color string

//annogen:builder
type Line struct {
	//annogen:builder skip=maybe
	From Point
	To   Point
}

type Loose struct {
	//annogen:builder skip
	Field int
}
