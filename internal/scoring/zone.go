package scoring

// CourtZone is one of nine fixed regions of the court, laid out as a 3x3
// grid of front/middle/back rows and left/middle/right columns (seen from
// behind the court, with the front wall at the top).
type CourtZone string

const (
	FrontLeft    CourtZone = "front_left"
	FrontMiddle  CourtZone = "front_middle"
	FrontRight   CourtZone = "front_right"
	MiddleLeft   CourtZone = "middle_left"
	MiddleMiddle CourtZone = "middle_middle"
	MiddleRight  CourtZone = "middle_right"
	BackLeft     CourtZone = "back_left"
	BackMiddle   CourtZone = "back_middle"
	BackRight    CourtZone = "back_right"
)

// AllZones lists every zone in fixed declaration order. Analytics tie-breaks
// depend on this order, so it must not be rearranged.
var AllZones = []CourtZone{
	FrontLeft, FrontMiddle, FrontRight,
	MiddleLeft, MiddleMiddle, MiddleRight,
	BackLeft, BackMiddle, BackRight,
}

var zoneShortNames = map[CourtZone]string{
	FrontLeft:    "FL",
	FrontMiddle:  "FM",
	FrontRight:   "FR",
	MiddleLeft:   "ML",
	MiddleMiddle: "MM",
	MiddleRight:  "MR",
	BackLeft:     "BL",
	BackMiddle:   "BM",
	BackRight:    "BR",
}

// ShortName returns a compact display code for the zone
func (z CourtZone) ShortName() string {
	return zoneShortNames[z]
}

// IsValid reports whether z is one of the nine known zones
func (z CourtZone) IsValid() bool {
	_, ok := zoneShortNames[z]
	return ok
}

// ParseZone converts a string value back into a CourtZone
func ParseZone(s string) (CourtZone, bool) {
	z := CourtZone(s)
	return z, z.IsValid()
}

// ZoneAt classifies a normalized court position into a zone. x runs left to
// right, y runs from the front wall (0) to the back wall (1). Coordinates on
// a threshold fall into the lower bucket: the comparisons are strictly
// `< 0.33` and `< 0.66` on both axes.
func ZoneAt(x, y float64) CourtZone {
	col := 2
	if x < 0.33 {
		col = 0
	} else if x < 0.66 {
		col = 1
	}

	row := 2
	if y < 0.33 {
		row = 0
	} else if y < 0.66 {
		row = 1
	}

	return AllZones[row*3+col]
}
