package economy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"snakearena/internal/dependencies/mocks"
	"snakearena/internal/model"
	"snakearena/internal/services/economy"
	"snakearena/internal/storage/memory"
	"snakearena/internal/testutil"
)

type EconomyServiceTestSuite struct {
	suite.Suite

	store   *memory.Storage
	clock   *mocks.MockClock
	service *economy.Service
}

func TestEconomyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EconomyServiceTestSuite))
}

func (s *EconomyServiceTestSuite) SetupTest() {
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC))
	s.service = economy.New(s.store, s.clock, testutil.NopLogger())
}

func (s *EconomyServiceTestSuite) createAccount(token model.Token, credits int, cooldownUntil time.Time) {
	s.Require().NoError(s.store.CreateAccount(context.Background(), &model.Account{
		Token:         token,
		ID:            model.AccountID("acc_" + string(token)),
		Name:          "player",
		Emoji:         "🐍",
		Credits:       credits,
		CooldownUntil: cooldownUntil,
	}))
}

func (s *EconomyServiceTestSuite) TestCheckAdmission_WithCredits() {
	adm := s.service.CheckAdmission(&model.Account{Credits: 2})
	s.True(adm.Admitted)
	s.Zero(adm.WaitMinutes)
}

func (s *EconomyServiceTestSuite) TestCheckAdmission_NoCreditsNoCooldown() {
	adm := s.service.CheckAdmission(&model.Account{})
	s.True(adm.Admitted)
}

func (s *EconomyServiceTestSuite) TestCheckAdmission_OnCooldown() {
	until := s.clock.Now().Add(25*time.Minute + 30*time.Second)
	adm := s.service.CheckAdmission(&model.Account{CooldownUntil: until})
	s.False(adm.Admitted)
	s.Equal(26, adm.WaitMinutes)
}

func (s *EconomyServiceTestSuite) TestCheckAdmission_ExpiredCooldown() {
	until := s.clock.Now().Add(-time.Minute)
	adm := s.service.CheckAdmission(&model.Account{CooldownUntil: until})
	s.True(adm.Admitted)
}

func (s *EconomyServiceTestSuite) TestSettleRound_Decrements() {
	s.createAccount("tok_a", 3, time.Time{})

	settlements, err := s.service.SettleRound(context.Background(), []model.Token{"tok_a"})
	s.Require().NoError(err)
	s.Require().Len(settlements, 1)
	s.Equal(2, settlements[0].Credits)
	s.False(settlements[0].Dropped)
	s.Zero(settlements[0].WaitMinutes)

	account, err := s.store.AccountByToken(context.Background(), "tok_a")
	s.Require().NoError(err)
	s.Equal(2, account.Credits)
}

func (s *EconomyServiceTestSuite) TestSettleRound_LastCreditStartsCooldown() {
	s.createAccount("tok_a", 1, time.Time{})

	settlements, err := s.service.SettleRound(context.Background(), []model.Token{"tok_a"})
	s.Require().NoError(err)
	s.Require().Len(settlements, 1)
	s.Zero(settlements[0].Credits)
	s.True(settlements[0].Dropped)
	s.Equal(60, settlements[0].WaitMinutes)
	s.Equal(s.clock.Now().Add(economy.CooldownDuration), settlements[0].CooldownUntil)

	account, err := s.store.AccountByToken(context.Background(), "tok_a")
	s.Require().NoError(err)
	s.Zero(account.Credits)
	s.Equal(settlements[0].CooldownUntil, account.CooldownUntil)
}

func (s *EconomyServiceTestSuite) TestSettleRound_ZeroBalanceDropped() {
	// Playing on an expired cooldown: dropped at round end, but no new
	// cooldown is started since nothing was spent.
	s.createAccount("tok_free", 0, s.clock.Now().Add(-time.Hour))

	settlements, err := s.service.SettleRound(context.Background(), []model.Token{"tok_free"})
	s.Require().NoError(err)
	s.Require().Len(settlements, 1)
	s.Zero(settlements[0].Credits)
	s.True(settlements[0].Dropped)
	s.Zero(settlements[0].WaitMinutes)

	account, err := s.store.AccountByToken(context.Background(), "tok_free")
	s.Require().NoError(err)
	s.False(account.OnCooldown(s.clock.Now()))
}

func (s *EconomyServiceTestSuite) TestSettleRound_RunningCooldownNotRestarted() {
	// A credit earned mid-cooldown and spent before it expires: the running
	// cooldown stands, it is not extended.
	until := s.clock.Now().Add(30 * time.Minute)
	s.createAccount("tok_a", 1, until)

	settlements, err := s.service.SettleRound(context.Background(), []model.Token{"tok_a"})
	s.Require().NoError(err)
	s.Require().Len(settlements, 1)
	s.True(settlements[0].Dropped)
	s.Equal(until, settlements[0].CooldownUntil)
	s.Equal(30, settlements[0].WaitMinutes)

	account, err := s.store.AccountByToken(context.Background(), "tok_a")
	s.Require().NoError(err)
	s.Equal(until, account.CooldownUntil)
}

func (s *EconomyServiceTestSuite) TestSettleRound_MultipleParticipants() {
	s.createAccount("tok_rich", 5, time.Time{})
	s.createAccount("tok_last", 1, time.Time{})

	settlements, err := s.service.SettleRound(context.Background(),
		[]model.Token{"tok_rich", "tok_last"})
	s.Require().NoError(err)
	s.Require().Len(settlements, 2)
	s.Equal(4, settlements[0].Credits)
	s.False(settlements[0].Dropped)
	s.True(settlements[1].Dropped)
}

func (s *EconomyServiceTestSuite) TestGrant_AddsCreditsAndClearsCooldown() {
	s.createAccount("tok_a", 0, s.clock.Now().Add(time.Hour))

	account, err := s.service.Grant(context.Background(), "tok_a", economy.GrantAmount)
	s.Require().NoError(err)
	s.Equal(10, account.Credits)
	s.True(account.CooldownUntil.IsZero())

	stored, err := s.store.AccountByToken(context.Background(), "tok_a")
	s.Require().NoError(err)
	s.Equal(10, stored.Credits)
	s.True(stored.CooldownUntil.IsZero())
}

func (s *EconomyServiceTestSuite) TestGrant_UnknownAccount() {
	_, err := s.service.Grant(context.Background(), "tok_missing", 10)
	s.Require().ErrorIs(err, model.ErrAccountNotFound)
}

func (s *EconomyServiceTestSuite) TestSecretCode_Format() {
	s.Equal("3082026", economy.SecretCode(time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)))
	s.Equal("1122025", economy.SecretCode(time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)))
}

func (s *EconomyServiceTestSuite) TestApplySecretCode_Grants() {
	s.createAccount("tok_a", 0, time.Time{})

	account, matched, err := s.service.ApplySecretCode(context.Background(), "tok_a", "3082026")
	s.Require().NoError(err)
	s.True(matched)
	s.Equal(1, account.Credits)
}

func (s *EconomyServiceTestSuite) TestApplySecretCode_ReversedRemoves() {
	s.createAccount("tok_a", 2, time.Time{})

	account, matched, err := s.service.ApplySecretCode(context.Background(), "tok_a", "6202803")
	s.Require().NoError(err)
	s.True(matched)
	s.Equal(1, account.Credits)
}

func (s *EconomyServiceTestSuite) TestApplySecretCode_ReversedFlooredAtZero() {
	s.createAccount("tok_a", 0, time.Time{})

	account, matched, err := s.service.ApplySecretCode(context.Background(), "tok_a", "6202803")
	s.Require().NoError(err)
	s.True(matched)
	s.Zero(account.Credits)
}

func (s *EconomyServiceTestSuite) TestApplySecretCode_NoMatch() {
	s.createAccount("tok_a", 0, time.Time{})

	account, matched, err := s.service.ApplySecretCode(context.Background(), "tok_a", "hello there")
	s.Require().NoError(err)
	s.False(matched)
	s.Nil(account)
}

func (s *EconomyServiceTestSuite) TestApplySecretCode_TrimsWhitespace() {
	s.createAccount("tok_a", 0, time.Time{})

	_, matched, err := s.service.ApplySecretCode(context.Background(), "tok_a", "  3082026\n")
	s.Require().NoError(err)
	s.True(matched)
}
