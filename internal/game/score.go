package game

// Score converts a round's topic and a player's three ranked guesses into
// points. The guesses form a priority cascade: only the highest-ranked match
// counts, never a sum. Stopping the round doubles the result.
func Score(topic, firstGuess, secondGuess, thirdGuess string, stoppedRound bool) int {
	score := 0
	switch topic {
	case firstGuess:
		score = 500
	case secondGuess:
		score = 400
	case thirdGuess:
		score = 300
	}
	if stoppedRound {
		score *= 2
	}
	return score
}
