package palette

//annogen:enum
type Color string

const (
	Red   Color = "red"
	Green Color = "green"
	Blue  Color = "blue"
)

//annogen:enum
type Size int

const (
	Small Size = iota + 1
	Medium
	Large
	Default = Medium
)

//annogen:enum string=false
type Level uint8

const (
	Low Level = iota
	High
)

//annogen:enum
type Weekday int

const Monday Weekday = 1

func (d Weekday) String() string { return "Monday" }

//annogen:enum
type Empty string

//annogen:enum
type Ratio float64

//annogen:enum parse=perhaps
type Mode int

const ModeA Mode = 0
