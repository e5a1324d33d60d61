package formula_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mindtrain/rankengine/internal/domain/formula"
)

func TestSessionScore(t *testing.T) {
	Convey("Given the authoritative session weights", t, func() {
		Convey("A mid-range session produces the documented score", func() {
			// 500*0.6 + 3*50 + 80*2 + (3600/120)*0.5 = 300+150+160+15
			So(formula.SessionScore(500, 3, 120, 80), ShouldEqual, 625)
		})

		Convey("A zero session still earns the level bonus", func() {
			So(formula.SessionScore(0, 1, 3600, 0), ShouldEqual, 51)
		})

		Convey("The speed bonus shrinks with duration", func() {
			fast := formula.SessionScore(100, 1, 60, 50)
			slow := formula.SessionScore(100, 1, 600, 50)
			So(fast, ShouldBeGreaterThan, slow)
			So(fast-slow, ShouldEqual, 27) // 30 - 3
		})

		Convey("A non-positive duration contributes no speed bonus", func() {
			So(formula.SessionScore(100, 1, 0, 0), ShouldEqual, 110)
		})

		Convey("The result is rounded, not truncated", func() {
			// 1*0.6 + 50 + 0 + (3600/4000)*0.5 = 51.05 -> 51
			So(formula.SessionScore(1, 1, 4000, 0), ShouldEqual, 51)
			// 2*0.6 + 50 + 0 + (3600/2400)*0.5 = 51.95 -> 52
			So(formula.SessionScore(2, 1, 2400, 0), ShouldEqual, 52)
		})
	})
}

func TestCompositeScore(t *testing.T) {
	Convey("Given the authoritative composite weights", t, func() {
		Convey("A seasoned player produces the documented score", func() {
			// 15000*0.5 + 16*150 + 50*3 + 300*0.3 + 12*10
			So(formula.CompositeScore(15000, 16, 50, 300, 12), ShouldEqual, 10260)
		})

		Convey("A new player scores the flat level-one bonus", func() {
			So(formula.CompositeScore(0, 1, 0, 0, 0), ShouldEqual, 150)
		})

		Convey("Total score dominates average score", func() {
			grinder := formula.CompositeScore(20000, 21, 200, 100, 0)
			sniper := formula.CompositeScore(2000, 3, 4, 500, 0)
			So(grinder, ShouldBeGreaterThan, sniper)
		})
	})
}

func TestLevel(t *testing.T) {
	Convey("Level derivation from total score", t, func() {
		So(formula.Level(0), ShouldEqual, 1)
		So(formula.Level(999.99), ShouldEqual, 1)
		So(formula.Level(1000), ShouldEqual, 2)
		So(formula.Level(15000), ShouldEqual, 16)
	})
}

func TestIncrementalAverage(t *testing.T) {
	Convey("Incremental average matches the batch average", t, func() {
		values := []float64{625, 480, 1010, 77, 333}
		var avg, sum float64
		for i, v := range values {
			avg = formula.IncrementalAverage(avg, int64(i), v)
			sum += v
		}
		So(avg, ShouldAlmostEqual, sum/float64(len(values)), 1e-9)

		Convey("First value becomes the average", func() {
			So(formula.IncrementalAverage(0, 0, 625), ShouldEqual, 625)
		})
	})
}

func TestAccuracyPct(t *testing.T) {
	Convey("Accuracy percentage from answer counts", t, func() {
		So(formula.AccuracyPct(8, 10), ShouldEqual, 80)
		So(formula.AccuracyPct(10, 10), ShouldEqual, 100)
		So(formula.AccuracyPct(0, 10), ShouldEqual, 0)

		Convey("Rounds to the nearest whole percent", func() {
			So(formula.AccuracyPct(1, 3), ShouldEqual, 33)
			So(formula.AccuracyPct(2, 3), ShouldEqual, 67)
		})

		Convey("Zero questions yields zero accuracy", func() {
			So(formula.AccuracyPct(0, 0), ShouldEqual, 0)
			So(formula.AccuracyPct(5, 0), ShouldEqual, 0)
		})
	})
}
