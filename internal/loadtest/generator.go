package loadtest

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/mindtrain/rankengine/internal/domain/game"
)

// Submission generation bounds.
const (
	maxRawScore   = 2000
	maxDuration   = 600
	minDuration   = 10
	maxQuestions  = 50
	randomDivisor = 1000000
)

// randomFloat returns a uniform float64 in [0, 1) from crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomDivisor))
	return float64(n.Int64()) / float64(randomDivisor)
}

func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generatePlayers creates a pool of unique synthetic players.
func generatePlayers(n int) []registerRequest {
	players := make([]registerRequest, n)
	for i := range players {
		id := uuid.NewString()
		players[i] = registerRequest{
			PlayerID:    id,
			DisplayName: fmt.Sprintf("loadtest-%04d", i),
		}
	}
	return players
}

// generateSubmissions spreads count submissions across the player pool and
// the full game catalog.
func generateSubmissions(players []registerRequest, count int) []resultRequest {
	catalog := game.All()
	subs := make([]resultRequest, count)
	for i := range subs {
		p := players[randomInt(len(players))]
		t := catalog[randomInt(len(catalog))]
		total := 1 + randomInt(maxQuestions)
		subs[i] = resultRequest{
			PlayerID:        p.PlayerID,
			GameType:        t.String(),
			Score:           randomFloat() * maxRawScore,
			Level:           1 + randomInt(10),
			DurationSeconds: minDuration + randomFloat()*(maxDuration-minDuration),
			CorrectAnswers:  randomInt(total + 1),
			TotalQuestions:  total,
		}
	}
	return subs
}
