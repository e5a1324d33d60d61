package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mindtrain/rankengine/internal/adapters/http/api"
	service "github.com/mindtrain/rankengine/internal/app"
	"github.com/mindtrain/rankengine/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

// newTestServer wires the router onto a real service with the in-memory
// store.
func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	svc := service.New()
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	ts := httptest.NewServer(api.NewServer(svc).Router())
	t.Cleanup(ts.Close)
	return ts, svc
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

const submitBody = `{
	"player_id": "p1",
	"game_type": "numberMemory",
	"score": 500,
	"level": 3,
	"duration_seconds": 120,
	"correct_answers": 8,
	"total_questions": 10
}`

func registerPlayer(t *testing.T, ts *httptest.Server, id string) {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/v1/players", `{"player_id":"`+id+`","display_name":"Player `+id+`"}`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", id, resp.StatusCode)
	}
}

func TestPostResult(t *testing.T) {
	Convey("Given a running API with one player", t, func() {
		ts, _ := newTestServer(t)
		registerPlayer(t, ts, "p1")

		Convey("A valid submission returns 201 with the outcome", func() {
			resp := postJSON(t, ts.URL+"/api/v1/results", submitBody)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)

			var out struct {
				SessionScore int     `json:"session_score"`
				AccuracyPct  float64 `json:"accuracy_pct"`
				PersonalBest bool    `json:"personal_best"`
			}
			decodeBody(t, resp, &out)
			So(out.SessionScore, ShouldEqual, 625)
			So(out.AccuracyPct, ShouldEqual, 80)
			So(out.PersonalBest, ShouldBeTrue)
		})

		Convey("Malformed JSON returns 400", func() {
			resp := postJSON(t, ts.URL+"/api/v1/results", `{not json`)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An unknown game type returns 400", func() {
			body := strings.Replace(submitBody, "numberMemory", "solitaire", 1)
			resp := postJSON(t, ts.URL+"/api/v1/results", body)
			var e struct {
				Code string `json:"code"`
			}
			decodeBody(t, resp, &e)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(e.Code, ShouldEqual, "bad_request")
		})

		Convey("An unknown player returns 404", func() {
			body := strings.Replace(submitBody, `"p1"`, `"ghost"`, 1)
			resp := postJSON(t, ts.URL+"/api/v1/results", body)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("A deactivated player returns 409", func() {
			resp := postJSON(t, ts.URL+"/api/v1/players/p1/deactivate", "")
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			resp = postJSON(t, ts.URL+"/api/v1/results", submitBody)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})
	})
}

func TestPlayersEndpoints(t *testing.T) {
	Convey("Given a running API", t, func() {
		ts, _ := newTestServer(t)
		registerPlayer(t, ts, "p1")

		Convey("Re-registering the same player returns 409", func() {
			resp := postJSON(t, ts.URL+"/api/v1/players", `{"player_id":"p1","display_name":"Again"}`)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("Registration without a display name returns 400", func() {
			resp := postJSON(t, ts.URL+"/api/v1/players", `{"player_id":"p9"}`)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Player stats reflect accepted submissions", func() {
			resp := postJSON(t, ts.URL+"/api/v1/results", submitBody)
			_ = resp.Body.Close()

			resp, err := http.Get(ts.URL + "/api/v1/players/p1/stats")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var stats struct {
				TotalScore  float64 `json:"total_score"`
				GamesPlayed int64   `json:"games_played"`
				Rank        int     `json:"rank"`
			}
			decodeBody(t, resp, &stats)
			So(stats.TotalScore, ShouldEqual, 500)
			So(stats.GamesPlayed, ShouldEqual, 1)
			So(stats.Rank, ShouldEqual, 1)
		})

		Convey("Stats for an unknown player return 404", func() {
			resp, err := http.Get(ts.URL + "/api/v1/players/ghost/stats")
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("History pages newest first", func() {
			for i := 0; i < 3; i++ {
				resp := postJSON(t, ts.URL+"/api/v1/results", submitBody)
				_ = resp.Body.Close()
			}
			resp, err := http.Get(ts.URL + "/api/v1/players/p1/history/numberMemory?limit=2")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var page struct {
				Entries []struct {
					SessionScore int `json:"session_score"`
				} `json:"entries"`
			}
			decodeBody(t, resp, &page)
			So(len(page.Entries), ShouldEqual, 2)
		})
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	Convey("Given a running API with three scored players", t, func() {
		ts, _ := newTestServer(t)
		for _, id := range []string{"p1", "p2", "p3"} {
			registerPlayer(t, ts, id)
		}
		for i, id := range []string{"p1", "p2", "p3"} {
			body := strings.Replace(submitBody, `"score": 500`, `"score": `+string(rune('1'+i))+`00`, 1)
			body = strings.Replace(body, `"p1"`, `"`+id+`"`, 1)
			resp := postJSON(t, ts.URL+"/api/v1/results", body)
			_ = resp.Body.Close()
		}

		Convey("The global board is ordered with contiguous ranks", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard?limit=10")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var page struct {
				Entries []struct {
					Rank           int    `json:"rank"`
					PlayerID       string `json:"player_id"`
					CompositeScore int    `json:"composite_score"`
				} `json:"entries"`
			}
			decodeBody(t, resp, &page)
			So(len(page.Entries), ShouldEqual, 3)
			So(page.Entries[0].PlayerID, ShouldEqual, "p3")
			for i, e := range page.Entries {
				So(e.Rank, ShouldEqual, i+1)
			}
		})

		Convey("A per-game board serves the same population", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard/numberMemory")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var page struct {
				GameType string `json:"game_type"`
				Entries  []struct {
					PlayerID string `json:"player_id"`
				} `json:"entries"`
			}
			decodeBody(t, resp, &page)
			So(page.GameType, ShouldEqual, "numberMemory")
			So(len(page.Entries), ShouldEqual, 3)
		})

		Convey("An unknown game board returns 400", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard/poker")
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A non-numeric limit returns 400", func() {
			resp, err := http.Get(ts.URL + "/api/v1/leaderboard?limit=abc")
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestGamesEndpoints(t *testing.T) {
	Convey("Given a running API", t, func() {
		ts, _ := newTestServer(t)

		Convey("The catalog lists every game type", func() {
			resp, err := http.Get(ts.URL + "/api/v1/games")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var games []struct {
				GameType   string `json:"game_type"`
				Name       string `json:"name"`
				TimeScored bool   `json:"time_scored"`
			}
			decodeBody(t, resp, &games)
			So(len(games), ShouldEqual, 13)
		})

		Convey("A single catalog entry resolves", func() {
			resp, err := http.Get(ts.URL + "/api/v1/games/schulteTable")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var info struct {
				Name       string `json:"name"`
				TimeScored bool   `json:"time_scored"`
			}
			decodeBody(t, resp, &info)
			So(info.Name, ShouldEqual, "Schulte Table")
			So(info.TimeScored, ShouldBeTrue)
		})

		Convey("An unknown game returns 404", func() {
			resp, err := http.Get(ts.URL + "/api/v1/games/checkers")
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("Analytics summarize submitted records", func() {
			registerPlayer(t, ts, "p1")
			resp := postJSON(t, ts.URL+"/api/v1/results", submitBody)
			_ = resp.Body.Close()

			resp, err := http.Get(ts.URL + "/api/v1/games/numberMemory/analytics")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var out struct {
				TotalGames    int64 `json:"total_games"`
				UniquePlayers int64 `json:"unique_players"`
			}
			decodeBody(t, resp, &out)
			So(out.TotalGames, ShouldEqual, 1)
			So(out.UniquePlayers, ShouldEqual, 1)
		})
	})
}

func TestAdminRecompute(t *testing.T) {
	Convey("Given a running API with a scored player", t, func() {
		ts, _ := newTestServer(t)
		registerPlayer(t, ts, "p1")
		resp := postJSON(t, ts.URL+"/api/v1/results", submitBody)
		_ = resp.Body.Close()

		Convey("A recompute run returns the report", func() {
			resp := postJSON(t, ts.URL+"/api/v1/admin/recompute", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var report struct {
				Scanned int `json:"scanned"`
				Failed  int `json:"failed"`
			}
			decodeBody(t, resp, &report)
			So(report.Scanned, ShouldEqual, 1)
			So(report.Failed, ShouldEqual, 0)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a running API", t, func() {
		ts, _ := newTestServer(t)

		Convey("The health endpoint serves metrics", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("The stats endpoint serves service counters", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var stats map[string]any
			decodeBody(t, resp, &stats)
			So(stats["started"], ShouldEqual, true)
		})
	})
}
