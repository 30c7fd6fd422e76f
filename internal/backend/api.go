package backend

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// User is the account returned on login.
type User struct {
	ID       int64  `json:"id_usr"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Admin    bool   `json:"e_adm"`
}

// Game is a scheduled or played match.
type Game struct {
	ID    int64     `json:"id_jogo"`
	Name  string    `json:"nome_jogo"`
	TeamA string    `json:"nome_time_a"`
	TeamB string    `json:"nome_time_b"`
	Date  time.Time `json:"data_hora"`
}

// Label returns "Team A x Team B".
func (g Game) Label() string {
	return fmt.Sprintf("%s x %s", g.TeamA, g.TeamB)
}

// ScoreRecord is a persisted scoreboard snapshot for one period of a game.
type ScoreRecord struct {
	ID        int64      `json:"id_placar,omitempty"`
	GameID    int64      `json:"jogo_id"`
	Period    int        `json:"periodo"` // 1-based period index
	PointsA   int        `json:"pontos_time_a"`
	PointsB   int        `json:"pontos_time_b"`
	FoulsA    int        `json:"set_faltas_a"`
	FoulsB    int        `json:"set_faltas_b"`
	TimeoutsA int        `json:"pedido_tempo_a"`
	TimeoutsB int        `json:"pedido_tempo_b"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Login exchanges credentials for an access token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"senha"`
	}{email, password}
	var out struct {
		AccessToken string `json:"access_token"`
		User        User   `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("backend: login response carried no access token")
	}
	if err := c.tokens.SetToken(out.AccessToken); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout forgets the stored token.
func (c *Client) Logout() error {
	return c.tokens.ClearToken()
}

// ListGames returns every game.
func (c *Client) ListGames(ctx context.Context) ([]Game, error) {
	var games []Game
	if err := c.do(ctx, http.MethodGet, "/jogos", nil, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// CreateScore persists a new record and returns it with its assigned ID.
func (c *Client) CreateScore(ctx context.Context, rec ScoreRecord) (ScoreRecord, error) {
	rec.ID = 0
	var out ScoreRecord
	if err := c.do(ctx, http.MethodPost, "/placar", rec, &out); err != nil {
		return ScoreRecord{}, err
	}
	if out.ID == 0 {
		return ScoreRecord{}, fmt.Errorf("backend: create score: response carried no id_placar")
	}
	return out, nil
}

// UpdateScore overwrites the record with the given ID.
func (c *Client) UpdateScore(ctx context.Context, id int64, rec ScoreRecord) (ScoreRecord, error) {
	rec.ID = 0
	out := ScoreRecord{ID: id}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/placar/%d", id), rec, &out); err != nil {
		return ScoreRecord{}, err
	}
	if out.ID == 0 {
		out.ID = id
	}
	return out, nil
}

// ScoresForGame lists every record saved for a game.
func (c *Client) ScoresForGame(ctx context.Context, gameID int64) ([]ScoreRecord, error) {
	var recs []ScoreRecord
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/placar/jogo/%d", gameID), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// LatestPerPeriod keeps the newest record of each period, ordered by period.
// Records without a timestamp lose to ones that have one.
func LatestPerPeriod(recs []ScoreRecord) []ScoreRecord {
	latest := make(map[int]ScoreRecord)
	for _, r := range recs {
		cur, ok := latest[r.Period]
		if !ok || newer(r, cur) {
			latest[r.Period] = r
		}
	}
	out := make([]ScoreRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

func newer(a, b ScoreRecord) bool {
	switch {
	case a.CreatedAt == nil:
		return false
	case b.CreatedAt == nil:
		return true
	default:
		return a.CreatedAt.After(*b.CreatedAt)
	}
}
