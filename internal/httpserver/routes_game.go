// internal/httpserver/routes_game.go
//
// Game session endpoints.
// Responsibilities:
//   - Create sessions for any board (pig, greed, balut, custom) and keep
//     them in the session store keyed by a random ID.
//   - Drive the human side (roll, hold, bank, category) and then run the
//     AI side to completion of its turn before responding.
//   - Custom board operations (players, scores, notes, dice count, name,
//     reset) with no AI involvement.
//   - Persist finished games to game_sessions and mirror results into the
//     stats tables for signed-in players.
//
// Sessions are owned: a session created by a guest cookie or a user can
// only be acted on by the same identity.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mayor/kavi-server/internal/dice"
	"github.com/mayor/kavi-server/internal/game"
	"github.com/mayor/kavi-server/internal/stats"
	"github.com/mayor/kavi-server/internal/store"
)

// aiTurnCap bounds the AI driver loops. Real turns finish in a handful
// of rolls; the cap only guards against a wedged state.
const aiTurnCap = 200

// mountGame registers the /game routes on a router that already carries
// optional-auth middleware.
func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleGameNew)
	r.Get("/game/state", s.handleGameState)
	r.Post("/game/roll", s.handleGameRoll)
	r.Post("/game/hold", s.handleGameHold)
	r.Post("/game/bank", s.handleGameBank)
	r.Post("/game/category", s.handleGameCategory)

	r.Post("/game/custom/player", s.handleCustomPlayer)
	r.Post("/game/custom/score", s.handleCustomScore)
	r.Post("/game/custom/note", s.handleCustomNote)
	r.Post("/game/custom/dice", s.handleCustomDice)
	r.Post("/game/custom/name", s.handleCustomName)
	r.Post("/game/custom/reset", s.handleCustomReset)
}

// ----------------------------- identities ----------------------------------

// requesterID returns the acting identity: the authed user ID when
// present, otherwise the (possibly freshly minted) anonymous cookie ID.
func (s *Server) requesterID(w http.ResponseWriter, r *http.Request) (id string, authed bool) {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID, true
	}
	return s.ensureAnonID(w, r), false
}

// managersFor builds the per-request engine collaborators. Signed-in
// players get their stored opponent model and telemetry sink; guests
// play against the balanced defaults.
func (s *Server) managersFor(ownerID string, authed bool) (game.AnalysisProvider, game.Tracker) {
	if !authed {
		return nil, nil
	}
	us := s.stats.ForUser(ownerID)
	return us, us
}

// loadOwnedSession fetches a session and enforces ownership. Writes the
// error response itself and returns nil when the caller should stop.
func (s *Server) loadOwnedSession(w http.ResponseWriter, r *http.Request, id, owner string) *store.Session {
	if id == "" {
		http.Error(w, `{"error":"missing id"}`, http.StatusBadRequest)
		return nil
	}
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return nil
	}
	if sess.OwnerID != owner {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return nil
	}
	return sess
}

// ------------------------------ responses ----------------------------------

// sessionView is the wire shape for a session. Index sets become sorted
// arrays so clients get stable, compact JSON.
type sessionView struct {
	ID       string      `json:"id"`
	Board    dice.Board  `json:"board"`
	State    any         `json:"state"`
	LastRoll []int       `json:"lastRoll,omitempty"`
	Held     []int       `json:"held"`
}

func viewOf(sess *store.Session) sessionView {
	v := sessionView{
		ID:       sess.ID,
		Board:    sess.Board,
		LastRoll: sess.LastRoll,
		Held:     sortedIndices(sess.Held),
	}
	switch sess.Board {
	case dice.BoardPig:
		v.State = sess.Pig
	case dice.BoardGreed:
		v.State = sess.Greed
	case dice.BoardBalut:
		v.State = sess.Balut
	case dice.BoardCustom:
		v.State = sess.Custom
	}
	return v
}

func sortedIndices(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func writeSession(w http.ResponseWriter, sess *store.Session) {
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

// ------------------------------ lifecycle ----------------------------------

type newGameReq struct {
	Board     string `json:"board"`
	DiceCount int    `json:"diceCount"` // custom board only
	GameName  string `json:"gameName"`  // custom board only
}

// handleGameNew creates a session for the requested board and records a
// game_sessions row with status 'playing'.
func (s *Server) handleGameNew(w http.ResponseWriter, r *http.Request) {
	owner, authed := s.requesterID(w, r)
	var body newGameReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	board := dice.Board(strings.ToLower(strings.TrimSpace(body.Board)))
	analysis, tracker := s.managersFor(owner, authed)

	sess := &store.Session{
		ID:        genID(),
		Board:     board,
		OwnerID:   owner,
		CreatedAt: time.Now().UTC(),
		Held:      map[int]struct{}{},
	}
	switch board {
	case dice.BoardPig:
		st := game.NewPigManager(analysis, tracker, s.rng).InitializeGame()
		sess.Pig = &st
	case dice.BoardGreed:
		st := game.NewGreedManager(analysis, tracker, s.rng).InitializeGame()
		sess.Greed = &st
	case dice.BoardBalut:
		st := game.NewBalutManager(analysis, tracker, s.rng).InitializeGame()
		sess.Balut = &st
	case dice.BoardCustom:
		cm := game.NewCustomManager()
		st := cm.InitializeGame("")
		if body.GameName != "" {
			st = cm.SetGameName(st, body.GameName)
		}
		if body.DiceCount > 0 {
			st = cm.SetDiceCount(st, body.DiceCount)
		}
		sess.Custom = &st
	default:
		http.Error(w, `{"error":"unknown board"}`, http.StatusBadRequest)
		return
	}

	if err := s.store.Save(r.Context(), sess); err != nil {
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}
	s.insertGameRow(sess, owner, authed)

	// An AI opening turn runs before the human ever sees the board.
	s.runAITurn(sess, analysis, tracker)
	_ = s.store.Save(r.Context(), sess)
	s.persistIfFinished(sess, owner, authed)

	writeSession(w, sess)
}

// handleGameState returns the current session view.
func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	owner, _ := s.requesterID(w, r)
	sess := s.loadOwnedSession(w, r, r.URL.Query().Get("id"), owner)
	if sess == nil {
		return
	}
	writeSession(w, sess)
}

// --------------------------------- play ------------------------------------

type gameActionReq struct {
	ID       string `json:"id"`
	Dice     []int  `json:"dice"`     // hold: indices to keep
	Category string `json:"category"` // balut: category to score
}

// handleGameHold records the human's dice holds for the next roll.
func (s *Server) handleGameHold(w http.ResponseWriter, r *http.Request) {
	owner, _ := s.requesterID(w, r)
	var body gameActionReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	sess := s.loadOwnedSession(w, r, body.ID, owner)
	if sess == nil {
		return
	}

	n := dice.CountForBoard(sess.Board, customDiceCount(sess))
	held := map[int]struct{}{}
	for _, idx := range body.Dice {
		if idx >= 0 && idx < n {
			held[idx] = struct{}{}
		}
	}

	switch sess.Board {
	case dice.BoardGreed:
		st := *sess.Greed
		st.HeldDice = held
		sess.Greed = &st
	case dice.BoardBalut:
		st := *sess.Balut
		st.HeldDice = held
		sess.Balut = &st
	default:
		http.Error(w, `{"error":"holds not supported on this board"}`, http.StatusBadRequest)
		return
	}
	sess.Held = held
	_ = s.store.Save(r.Context(), sess)
	writeSession(w, sess)
}

// handleGameRoll rolls for the human, applies the turn, then runs any
// resulting AI turn to completion.
func (s *Server) handleGameRoll(w http.ResponseWriter, r *http.Request) {
	owner, authed := s.requesterID(w, r)
	var body gameActionReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	sess := s.loadOwnedSession(w, r, body.ID, owner)
	if sess == nil {
		return
	}
	analysis, tracker := s.managersFor(owner, authed)

	switch sess.Board {
	case dice.BoardPig:
		pm := game.NewPigManager(analysis, tracker, s.rng)
		die := s.roller.Roll(1)[0]
		st := pm.HandleTurn(*sess.Pig, die)
		sess.Pig = &st
		sess.LastRoll = []int{die}
	case dice.BoardGreed:
		gm := game.NewGreedManager(analysis, tracker, s.rng)
		st := *sess.Greed
		keep := unionIdx(st.HeldDice, st.ScoringDice)
		rolled := s.roller.Reroll(st.LastRoll, dice.CountForBoard(sess.Board, 0), keep)
		st = gm.HandleTurn(rolled, st, st.HeldDice)
		sess.Greed = &st
		sess.LastRoll = rolled
	case dice.BoardBalut:
		bm := game.NewBalutManager(analysis, tracker, s.rng)
		st := *sess.Balut
		if st.CurrentPlayer == game.HumanPlayer && st.RollsLeft <= 0 {
			http.Error(w, `{"error":"no rolls left, choose a category"}`, http.StatusConflict)
			return
		}
		rolled := s.roller.Reroll(sess.LastRoll, dice.CountForBoard(sess.Board, 0), st.HeldDice)
		st = bm.HandleTurn(rolled, st, st.HeldDice)
		sess.Balut = &st
		sess.LastRoll = rolled
	case dice.BoardCustom:
		cm := game.NewCustomManager()
		rolled := s.roller.Roll(dice.CountForBoard(sess.Board, customDiceCount(sess)))
		st := cm.HandleTurn(*sess.Custom, rolled)
		sess.Custom = &st
		sess.LastRoll = rolled
	default:
		http.Error(w, `{"error":"unknown board"}`, http.StatusBadRequest)
		return
	}

	s.runAITurn(sess, analysis, tracker)
	_ = s.store.Save(r.Context(), sess)
	s.persistIfFinished(sess, owner, authed)
	writeSession(w, sess)
}

// handleGameBank banks the human's turn score (pig and greed only) and
// then runs the AI's turn.
func (s *Server) handleGameBank(w http.ResponseWriter, r *http.Request) {
	owner, authed := s.requesterID(w, r)
	var body gameActionReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	sess := s.loadOwnedSession(w, r, body.ID, owner)
	if sess == nil {
		return
	}
	analysis, tracker := s.managersFor(owner, authed)

	switch sess.Board {
	case dice.BoardPig:
		pm := game.NewPigManager(analysis, tracker, s.rng)
		if tracker != nil && sess.Pig.CurrentPlayer == game.HumanPlayer {
			tracker.TrackBanking(sess.Pig.TurnScore)
		}
		st := pm.BankScore(*sess.Pig)
		sess.Pig = &st
	case dice.BoardGreed:
		gm := game.NewGreedManager(analysis, tracker, s.rng)
		if tracker != nil && sess.Greed.CurrentPlayer == game.HumanPlayer {
			tracker.TrackBanking(sess.Greed.TurnScore)
		}
		st := gm.BankScore(*sess.Greed)
		sess.Greed = &st
		sess.LastRoll = nil
	default:
		http.Error(w, `{"error":"banking not supported on this board"}`, http.StatusBadRequest)
		return
	}

	s.runAITurn(sess, analysis, tracker)
	_ = s.store.Save(r.Context(), sess)
	s.persistIfFinished(sess, owner, authed)
	writeSession(w, sess)
}

// handleGameCategory scores a Balut category for the human, then runs
// the AI's turn. Engine rejections map to 409.
func (s *Server) handleGameCategory(w http.ResponseWriter, r *http.Request) {
	owner, authed := s.requesterID(w, r)
	var body gameActionReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	sess := s.loadOwnedSession(w, r, body.ID, owner)
	if sess == nil {
		return
	}
	if sess.Board != dice.BoardBalut {
		http.Error(w, `{"error":"categories are a balut feature"}`, http.StatusBadRequest)
		return
	}
	analysis, tracker := s.managersFor(owner, authed)
	bm := game.NewBalutManager(analysis, tracker, s.rng)

	st, err := bm.ScoreCategory(*sess.Balut, sess.LastRoll, game.Category(body.Category))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusConflict)
		return
	}
	sess.Balut = &st
	sess.LastRoll = nil
	sess.Held = map[int]struct{}{}

	s.runAITurn(sess, analysis, tracker)
	_ = s.store.Save(r.Context(), sess)
	s.persistIfFinished(sess, owner, authed)
	writeSession(w, sess)
}

// ------------------------------ AI driver ----------------------------------

// runAITurn plays the AI side until the turn passes back to the human or
// the game ends. No-op when it is not the AI's move.
func (s *Server) runAITurn(sess *store.Session, analysis game.AnalysisProvider, tracker game.Tracker) {
	switch sess.Board {
	case dice.BoardPig:
		pm := game.NewPigManager(analysis, tracker, s.rng)
		st := *sess.Pig
		for i := 0; i < aiTurnCap && !st.GameOver && st.CurrentPlayer == game.AIPlayer; i++ {
			st = pm.HandleTurn(st, s.roller.Roll(1)[0])
		}
		sess.Pig = &st

	case dice.BoardGreed:
		gm := game.NewGreedManager(analysis, tracker, s.rng)
		st := *sess.Greed
		prev := st.LastRoll
		n := dice.CountForBoard(sess.Board, 0)
		for i := 0; i < aiTurnCap && !st.GameOver && st.CurrentPlayer == game.AIPlayer; i++ {
			rolled := s.roller.Reroll(prev, n, unionIdx(st.HeldDice, st.ScoringDice))
			st = gm.HandleTurn(rolled, st, nil)
			prev = rolled
		}
		sess.Greed = &st
		if st.CurrentPlayer == game.HumanPlayer {
			sess.LastRoll = nil
		}

	case dice.BoardBalut:
		bm := game.NewBalutManager(analysis, tracker, s.rng)
		st := *sess.Balut
		var prev []int
		n := dice.CountForBoard(sess.Board, 0)
		for i := 0; i < aiTurnCap && !st.GameOver && st.CurrentPlayer == game.AIPlayer; i++ {
			if st.RollsLeft <= 0 {
				// Final dice stand; this call scores a category.
				st = bm.HandleTurn(prev, st, nil)
				continue
			}
			rolled := s.roller.Reroll(prev, n, st.HeldDice)
			st = bm.HandleTurn(rolled, st, nil)
			prev = rolled
		}
		sess.Balut = &st
		if st.CurrentPlayer == game.HumanPlayer {
			sess.LastRoll = nil
			sess.Held = map[int]struct{}{}
		}
	}
}

// ---------------------------- custom board ---------------------------------

type customReq struct {
	ID     string `json:"id"`
	Op     string `json:"op"`     // player: add | remove | rename
	Player int    `json:"player"` // player index
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Note   string `json:"note"`
	Count  int    `json:"count"`
}

// customSession loads and type-checks a custom-board session.
func (s *Server) customSession(w http.ResponseWriter, r *http.Request, body *customReq) *store.Session {
	owner, _ := s.requesterID(w, r)
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return nil
	}
	sess := s.loadOwnedSession(w, r, body.ID, owner)
	if sess == nil {
		return nil
	}
	if sess.Board != dice.BoardCustom {
		http.Error(w, `{"error":"not a custom game"}`, http.StatusBadRequest)
		return nil
	}
	return sess
}

func (s *Server) handleCustomPlayer(w http.ResponseWriter, r *http.Request) {
	var body customReq
	sess := s.customSession(w, r, &body)
	if sess == nil {
		return
	}
	cm := game.NewCustomManager()
	var (
		st  game.CustomState
		err error
	)
	switch body.Op {
	case "add":
		st, err = cm.AddPlayer(*sess.Custom)
	case "remove":
		st, err = cm.RemovePlayer(*sess.Custom)
	case "rename":
		st = cm.RenamePlayer(*sess.Custom, body.Player, body.Name)
	default:
		http.Error(w, `{"error":"op must be add, remove or rename"}`, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusConflict)
		return
	}
	sess.Custom = &st
	_ = s.store.Save(r.Context(), sess)
	writeSession(w, sess)
}

func (s *Server) handleCustomScore(w http.ResponseWriter, r *http.Request) {
	var body customReq
	sess := s.customSession(w, r, &body)
	if sess == nil {
		return
	}
	st := game.NewCustomManager().AddScore(*sess.Custom, body.Player, body.Score)
	sess.Custom = &st
	_ = s.store.Save(r.Context(), sess)
	writeSession(w, sess)
}

func (s *Server) handleCustomNote(w http.ResponseWriter, r *http.Request) {
	var body customReq
	sess := s.customSession(w, r, &body)
	if sess == nil {
		return
	}
	st := game.NewCustomManager().AddNote(*sess.Custom, body.Player, body.Note)
	sess.Custom = &st
	_ = s.store.Save(r.Context(), sess)
	writeSession(w, sess)
}

func (s *Server) handleCustomDice(w http.ResponseWriter, r *http.Request) {
	var body customReq
	sess := s.customSession(w, r, &body)
	if sess == nil {
		return
	}
	st := game.NewCustomManager().SetDiceCount(*sess.Custom, body.Count)
	sess.Custom = &st
	_ = s.store.Save(r.Context(), sess)
	writeSession(w, sess)
}

func (s *Server) handleCustomName(w http.ResponseWriter, r *http.Request) {
	var body customReq
	sess := s.customSession(w, r, &body)
	if sess == nil {
		return
	}
	st := game.NewCustomManager().SetGameName(*sess.Custom, body.Name)
	sess.Custom = &st
	_ = s.store.Save(r.Context(), sess)
	writeSession(w, sess)
}

func (s *Server) handleCustomReset(w http.ResponseWriter, r *http.Request) {
	var body customReq
	sess := s.customSession(w, r, &body)
	if sess == nil {
		return
	}
	st := game.NewCustomManager().ResetScores(*sess.Custom)
	sess.Custom = &st
	_ = s.store.Save(r.Context(), sess)
	writeSession(w, sess)
}

// ----------------------------- persistence ---------------------------------

// insertGameRow records a new playing session. Custom games are local
// scorekeeping and are not persisted.
func (s *Server) insertGameRow(sess *store.Session, owner string, authed bool) {
	if sess.Board == dice.BoardCustom {
		return
	}
	userID, anonID := any(nil), any(nil)
	if authed {
		userID = owner
	} else {
		anonID = owner
	}
	if _, err := s.db.Exec(`INSERT INTO game_sessions (id, user_id, anonymous_id, board, status, score, ai_score, started_at)
	                        VALUES (?,?,?,?,'playing',0,0,?)`,
		sess.ID, userID, anonID, string(sess.Board), time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("insert game row")
	}
}

// persistIfFinished closes out the game_sessions row and bumps user
// stats once a game reaches a terminal state.
func (s *Server) persistIfFinished(sess *store.Session, owner string, authed bool) {
	var over bool
	var human, ai int
	switch sess.Board {
	case dice.BoardPig:
		over = sess.Pig.GameOver
		human, ai = sess.Pig.PlayerScores[game.HumanPlayer], sess.Pig.PlayerScores[game.AIPlayer]
	case dice.BoardGreed:
		over = sess.Greed.GameOver
		human, ai = sess.Greed.PlayerScores[game.HumanPlayer], sess.Greed.PlayerScores[game.AIPlayer]
	case dice.BoardBalut:
		over = sess.Balut.GameOver
		human, ai = sess.Balut.TotalScore(game.HumanPlayer), sess.Balut.TotalScore(game.AIPlayer)
	default:
		return
	}
	if !over {
		return
	}

	status := "lost"
	if human > ai {
		status = "won"
	}
	if _, err := s.db.Exec(`UPDATE game_sessions SET status=?, score=?, ai_score=?, finished_at=?
	                        WHERE id=? AND status='playing'`,
		status, human, ai, time.Now().UTC().Format(time.RFC3339), sess.ID); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("finish game row")
	}
	if authed {
		if err := s.stats.ForUser(owner).RecordGameResult(status == "won"); err != nil {
			log.Warn().Err(err).Str("user", owner).Msg("record game result")
		}
	}
}

// -------------------------------- helpers ----------------------------------

func customDiceCount(sess *store.Session) int {
	if sess.Custom != nil {
		return sess.Custom.DiceCount
	}
	return 0
}

// unionIdx merges index sets into a fresh set.
func unionIdx(sets ...map[int]struct{}) map[int]struct{} {
	out := map[int]struct{}{}
	for _, s := range sets {
		for i := range s {
			out[i] = struct{}{}
		}
	}
	return out
}

// Package invariants kept honest at compile time: UserStats satisfies
// both engine collaborator contracts.
var (
	_ game.AnalysisProvider = (*stats.UserStats)(nil)
	_ game.Tracker          = (*stats.UserStats)(nil)
)
