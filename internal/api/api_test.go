package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"snakearena/internal/api"
	"snakearena/internal/dependencies/mocks"
	"snakearena/internal/model"
	"snakearena/internal/services/economy"
	"snakearena/internal/services/leaderboard"
	"snakearena/internal/storage/memory"
	"snakearena/internal/testutil"
)

const testBotToken = "bot-secret"

type recordingNotifier struct {
	notified []*model.Account
}

func (n *recordingNotifier) NotifyCredits(account *model.Account) {
	n.notified = append(n.notified, account)
}

type APITestSuite struct {
	suite.Suite

	store    *memory.Storage
	clock    *mocks.MockClock
	board    *leaderboard.Service
	notifier *recordingNotifier
	router   http.Handler
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC))
	s.notifier = &recordingNotifier{}

	logger := testutil.NopLogger()
	eco := economy.New(s.store, s.clock, logger)
	s.board = leaderboard.New(s.store, s.clock, logger)

	s.router = api.NewRouter(api.RouterConfig{
		Logger:           logger,
		EconomyService:   eco,
		LeaderboardSvc:   s.board,
		CreditsNotifier:  s.notifier,
		WebsocketHandler: http.NotFoundHandler(),
		BotToken:         testBotToken,
	})
}

func (s *APITestSuite) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *APITestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/api/v1/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *APITestSuite) TestGetLeaderboard() {
	for _, score := range []int{30, 10, 20} {
		s.Require().NoError(s.board.RecordRound(context.Background(),
			[]model.AccountID{"acc_1"}, []string{"Ada"}, score))
	}

	rec := s.do(http.MethodGet, "/api/v1/leaderboard", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body.Leaderboard, 3)
	s.Equal(10, body.Leaderboard[0].Score)
	s.Equal(30, body.Leaderboard[2].Score)
}

func (s *APITestSuite) TestGetLeaderboard_WithLimit() {
	for _, score := range []int{30, 10, 20} {
		s.Require().NoError(s.board.RecordRound(context.Background(),
			[]model.AccountID{"acc_1"}, []string{"Ada"}, score))
	}

	rec := s.do(http.MethodGet, "/api/v1/leaderboard?limit=1", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body.Leaderboard, 1)
	s.Equal(10, body.Leaderboard[0].Score)
}

func (s *APITestSuite) TestGetLeaderboard_BadLimit() {
	rec := s.do(http.MethodGet, "/api/v1/leaderboard?limit=lots", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "INVALID_REQUEST")
}

func (s *APITestSuite) TestGetSoloLeaderboard() {
	s.board.SubmitSolo("Ada", 15)

	rec := s.do(http.MethodGet, "/api/v1/leaderboard/solo", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"leaderboard":[{"name":"Ada","score":15}]}`, rec.Body.String())
}

func (s *APITestSuite) TestConfirmPayment() {
	s.Require().NoError(s.store.CreateAccount(context.Background(), &model.Account{
		Token:         "tok_a",
		ID:            "acc_a",
		Name:          "Ada",
		Emoji:         "🐍",
		CooldownUntil: s.clock.Now().Add(time.Hour),
	}))

	rec := s.do(http.MethodPost, "/api/v1/payments/confirm",
		`{"token":"tok_a"}`, map[string]string{"X-Bot-Token": testBotToken})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"credits":10}`, rec.Body.String())

	// Cooldown cleared alongside the grant.
	account, err := s.store.AccountByToken(context.Background(), "tok_a")
	s.Require().NoError(err)
	s.Equal(10, account.Credits)
	s.True(account.CooldownUntil.IsZero())

	s.Require().Len(s.notifier.notified, 1)
	s.Equal(model.Token("tok_a"), s.notifier.notified[0].Token)
}

func (s *APITestSuite) TestConfirmPayment_WrongBotToken() {
	rec := s.do(http.MethodPost, "/api/v1/payments/confirm",
		`{"token":"tok_a"}`, map[string]string{"X-Bot-Token": "nope"})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Empty(s.notifier.notified)
}

func (s *APITestSuite) TestConfirmPayment_MissingToken() {
	rec := s.do(http.MethodPost, "/api/v1/payments/confirm",
		`{}`, map[string]string{"X-Bot-Token": testBotToken})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APITestSuite) TestConfirmPayment_UnknownAccount() {
	rec := s.do(http.MethodPost, "/api/v1/payments/confirm",
		`{"token":"tok_ghost"}`, map[string]string{"X-Bot-Token": testBotToken})
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "ACCOUNT_NOT_FOUND")
}
