package live

import "fmt"

// Key layout, one namespace per game:
//
//	game:{id}:status   string mirror of the durable game status
//	game:{id}:rounds   counter of rounds started
//	game:{id}:players  set of currently-joined player ids
//	active_games       set of game ids open for play
const activeGamesKey = "active_games"

func statusKey(gameID uint) string {
	return fmt.Sprintf("game:%d:status", gameID)
}

func roundsKey(gameID uint) string {
	return fmt.Sprintf("game:%d:rounds", gameID)
}

func playersKey(gameID uint) string {
	return fmt.Sprintf("game:%d:players", gameID)
}
