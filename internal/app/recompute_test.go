package service_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	repository "github.com/mindtrain/rankengine/internal/adapters/repository"
	service "github.com/mindtrain/rankengine/internal/app"
	"github.com/mindtrain/rankengine/internal/domain/game"
	"github.com/mindtrain/rankengine/internal/domain/model"
)

func TestRecompute(t *testing.T) {
	Convey("Given a store with players whose derived fields drifted", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		svc := newTestService(t, service.WithStore(store))

		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("p%d", i)
			So(svc.RegisterPlayer(ctx, id, "Player "+id), ShouldBeNil)
			_, err := svc.SubmitResult(ctx, id, validSubmission())
			So(err, ShouldBeNil)
		}

		// Corrupt one player's derived fields behind the service's back,
		// simulating a formula change or a historic write bug.
		_, err := store.UpdateAggregate(ctx, "p1", func(a *model.PlayerAggregate) error {
			a.AverageScore = 0
			a.CompositeScore = 1
			return nil
		})
		So(err, ShouldBeNil)

		Convey("One run repairs exactly the drifted player", func() {
			report, err := svc.Recompute(ctx)
			So(err, ShouldBeNil)
			So(report.Scanned, ShouldEqual, 3)
			So(report.Failed, ShouldEqual, 0)
			// p1 is repaired; p0 and p2 get the per-game backfill write.
			So(report.Updated, ShouldEqual, 3)

			repaired, err := svc.GetPlayerStats(ctx, "p1")
			So(err, ShouldBeNil)
			So(repaired.AverageScore, ShouldEqual, 500)

			Convey("Missing per-game entries are backfilled zeroed", func() {
				So(len(repaired.PerGame), ShouldEqual, len(game.All()))
				So(repaired.PerGame[game.FlashCards].GamesPlayed, ShouldEqual, 0)
			})

			Convey("A second run performs zero writes", func() {
				before, _ := store.Aggregate(ctx, "p1")
				report, err := svc.Recompute(ctx)
				So(err, ShouldBeNil)
				So(report.Scanned, ShouldEqual, 3)
				So(report.Updated, ShouldEqual, 0)
				after, _ := store.Aggregate(ctx, "p1")
				So(after.Version, ShouldEqual, before.Version)
			})
		})

		Convey("Deactivated players are skipped", func() {
			So(svc.DeactivatePlayer(ctx, "p2"), ShouldBeNil)
			report, err := svc.Recompute(ctx)
			So(err, ShouldBeNil)
			So(report.Scanned, ShouldEqual, 2)
		})

		Convey("A cancelled run stops between players with a partial report", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			report, err := svc.Recompute(cancelled)
			So(err, ShouldEqual, context.Canceled)
			So(report.Scanned, ShouldEqual, 0)
		})
	})
}
