package tournament

import "errors"

// Rejection taxonomy. Every one of these becomes a single targeted
// error reply to the requester; none of them mutates state or
// broadcasts. The message text is what the client displays verbatim.
var (
	errEmptyName          = errors.New("[Server]: Tournament name is required.")
	errNotFound           = errors.New("[Server]: Tournament not found.")
	errAlreadyStarted     = errors.New("[Server]: Tournament already started.")
	errNotCreator         = errors.New("[Server]: Only the creator can start the tournament.")
	errNotEnoughPlayers   = errors.New("[Server]: Not enough players to start.")
	errTournamentFull     = errors.New("[Server]: Tournament is full.")
	errTooManyTournaments = errors.New("[Server]: Too many tournaments.")
)
