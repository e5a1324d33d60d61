// Package game defines the closed set of mini-game types tracked by the
// ranking engine, together with their static classification and display
// metadata. The set is fixed configuration: new game types are introduced
// by extending this package, never derived at runtime.
package game

// Type identifies a mini-game. The wire representation is the camelCase
// identifier used by clients and persisted in score records.
type Type string

// Known game types.
const (
	NumberMemory   Type = "numberMemory"
	TileMemory     Type = "tileMemory"
	AlphaNumMemory Type = "alphaNumMemory"
	SchulteTable   Type = "schulteTable"
	DoubleSchulte  Type = "doubleSchulte"
	MathSystems    Type = "mathSystems"
	GcdLcm         Type = "gcdLcm"
	Fractions      Type = "fractions"
	Percentages    Type = "percentages"
	ReadingSpeed   Type = "readingSpeed"
	HideAndSeek    Type = "hideAndSeek"
	FlashAnzan     Type = "flashAnzan"
	FlashCards     Type = "flashCards"
)

// all lists every known type in catalog order. Keep in sync with the
// constants above; All and Parse are driven by this slice.
var all = []Type{
	NumberMemory,
	TileMemory,
	AlphaNumMemory,
	SchulteTable,
	DoubleSchulte,
	MathSystems,
	GcdLcm,
	Fractions,
	Percentages,
	ReadingSpeed,
	HideAndSeek,
	FlashAnzan,
	FlashCards,
}

// timeScored holds the game types where a lower raw value is better
// (elapsed time rather than points). Static configuration, not derived.
var timeScored = map[Type]struct{}{
	SchulteTable:  {},
	DoubleSchulte: {},
	ReadingSpeed:  {},
}

// All returns every known game type in stable catalog order.
// The returned slice is a copy and safe to mutate.
func All() []Type {
	out := make([]Type, len(all))
	copy(out, all)
	return out
}

// Parse validates a raw game type identifier.
// Returns ErrUnknownType for identifiers outside the closed set.
func Parse(s string) (Type, error) {
	t := Type(s)
	if _, ok := catalog[t]; !ok {
		return "", ErrUnknownType
	}
	return t, nil
}

// Valid reports whether t belongs to the closed set.
func (t Type) Valid() bool {
	_, ok := catalog[t]
	return ok
}

// TimeScored reports whether lower raw values are better for t.
func (t Type) TimeScored() bool {
	_, ok := timeScored[t]
	return ok
}

// String returns the wire identifier.
func (t Type) String() string { return string(t) }

// Info carries static display metadata for a game type.
type Info struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	MaxLevel        int    `json:"max_level"`
	ScoreMultiplier int    `json:"score_multiplier"`
	TimeScored      bool   `json:"time_scored"`
}

// catalog maps every game type to its static metadata.
var catalog = map[Type]Info{
	NumberMemory:   {Name: "Number Memory", Description: "Memorize sequences of digits shown one after another", MaxLevel: 20, ScoreMultiplier: 10},
	TileMemory:     {Name: "Tile Memory", Description: "Memorize highlighted positions on a tile grid", MaxLevel: 15, ScoreMultiplier: 15},
	AlphaNumMemory: {Name: "Letters & Numbers", Description: "Memorize mixed alphanumeric sequences", MaxLevel: 18, ScoreMultiplier: 12},
	SchulteTable:   {Name: "Schulte Table", Description: "Find the numbers 1-25 in order as fast as possible", MaxLevel: 10, ScoreMultiplier: 20},
	DoubleSchulte:  {Name: "Double Schulte", Description: "Alternate between two colored number sequences", MaxLevel: 8, ScoreMultiplier: 25},
	MathSystems:    {Name: "Math Systems", Description: "Compute logarithms, powers and roots", MaxLevel: 12, ScoreMultiplier: 18},
	GcdLcm:         {Name: "GCD & LCM", Description: "Find greatest common divisors and least common multiples", MaxLevel: 10, ScoreMultiplier: 16},
	Fractions:      {Name: "Fractions", Description: "Compare and compute fractions", MaxLevel: 12, ScoreMultiplier: 14},
	Percentages:    {Name: "Percentages", Description: "Solve percentage problems", MaxLevel: 15, ScoreMultiplier: 12},
	ReadingSpeed:   {Name: "Reading Speed", Description: "Read a passage quickly and answer comprehension questions", MaxLevel: 20, ScoreMultiplier: 8},
	HideAndSeek:    {Name: "Hide & Seek", Description: "Find the positions of hidden numbers", MaxLevel: 15, ScoreMultiplier: 13},
	FlashAnzan:     {Name: "Flash Anzan", Description: "Sum numbers flashed in rapid succession", MaxLevel: 20, ScoreMultiplier: 15},
	FlashCards:     {Name: "Flash Cards", Description: "Recall flashed card values", MaxLevel: 15, ScoreMultiplier: 12},
}

// Metadata returns the static catalog entry for t.
// Returns ErrUnknownType for identifiers outside the closed set.
func (t Type) Metadata() (Info, error) {
	info, ok := catalog[t]
	if !ok {
		return Info{}, ErrUnknownType
	}
	info.TimeScored = t.TimeScored()
	return info, nil
}
