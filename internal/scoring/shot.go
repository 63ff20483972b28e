package scoring

// ShotType is the stroke category credited with winning a point
type ShotType string

const (
	ShotDrive  ShotType = "drive"
	ShotCross  ShotType = "cross"
	ShotVolley ShotType = "volley"
	ShotDrop   ShotType = "drop"
	ShotLob    ShotType = "lob"
	ShotBoast  ShotType = "boast"
	ShotAce    ShotType = "ace"
	ShotStroke ShotType = "stroke"
)

// AllShotTypes lists every shot type in fixed declaration order. The
// best-shot tie-break depends on this order.
var AllShotTypes = []ShotType{
	ShotDrive, ShotCross, ShotVolley, ShotDrop,
	ShotLob, ShotBoast, ShotAce, ShotStroke,
}

var shotShortNames = map[ShotType]string{
	ShotDrive:  "DRV",
	ShotCross:  "CRS",
	ShotVolley: "VLY",
	ShotDrop:   "DRP",
	ShotLob:    "LOB",
	ShotBoast:  "BST",
	ShotAce:    "ACE",
	ShotStroke: "STR",
}

// ShortName returns a compact display code for the shot type
func (s ShotType) ShortName() string {
	return shotShortNames[s]
}

// IsValid reports whether s is one of the known shot types
func (s ShotType) IsValid() bool {
	_, ok := shotShortNames[s]
	return ok
}

// ParseShotType converts a string value back into a ShotType
func ParseShotType(v string) (ShotType, bool) {
	s := ShotType(v)
	return s, s.IsValid()
}
