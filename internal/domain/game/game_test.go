package game_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mindtrain/rankengine/internal/domain/game"
)

func TestParse(t *testing.T) {
	Convey("Given the closed game type set", t, func() {
		Convey("Every cataloged identifier parses to itself", func() {
			for _, want := range game.All() {
				got, err := game.Parse(want.String())
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})

		Convey("Unknown identifiers are rejected", func() {
			_, err := game.Parse("chess")
			So(err, ShouldEqual, game.ErrUnknownType)

			_, err = game.Parse("")
			So(err, ShouldEqual, game.ErrUnknownType)
		})

		Convey("Identifiers are case sensitive", func() {
			_, err := game.Parse("SchulteTable")
			So(err, ShouldEqual, game.ErrUnknownType)
		})
	})
}

func TestAll(t *testing.T) {
	Convey("Given the full catalog", t, func() {
		all := game.All()

		Convey("It holds every known game type exactly once", func() {
			So(len(all), ShouldEqual, 13)
			seen := map[game.Type]bool{}
			for _, t := range all {
				So(seen[t], ShouldBeFalse)
				seen[t] = true
			}
		})

		Convey("The returned slice is a copy", func() {
			all[0] = game.Type("tampered")
			So(game.All()[0], ShouldEqual, game.NumberMemory)
		})
	})
}

func TestTimeScored(t *testing.T) {
	Convey("Lower-is-better classification", t, func() {
		So(game.SchulteTable.TimeScored(), ShouldBeTrue)
		So(game.DoubleSchulte.TimeScored(), ShouldBeTrue)
		So(game.ReadingSpeed.TimeScored(), ShouldBeTrue)

		Convey("Every other game is points scored", func() {
			timeScored := 0
			for _, t := range game.All() {
				if t.TimeScored() {
					timeScored++
				}
			}
			So(timeScored, ShouldEqual, 3)
		})
	})
}

func TestMetadata(t *testing.T) {
	Convey("Given the static catalog", t, func() {
		Convey("Every game type carries complete metadata", func() {
			for _, t := range game.All() {
				info, err := t.Metadata()
				So(err, ShouldBeNil)
				So(info.Name, ShouldNotBeEmpty)
				So(info.Description, ShouldNotBeEmpty)
				So(info.MaxLevel, ShouldBeGreaterThan, 0)
				So(info.ScoreMultiplier, ShouldBeGreaterThan, 0)
				So(info.TimeScored, ShouldEqual, t.TimeScored())
			}
		})

		Convey("Unknown types report ErrUnknownType", func() {
			_, err := game.Type("sudoku").Metadata()
			So(err, ShouldEqual, game.ErrUnknownType)
		})
	})
}
