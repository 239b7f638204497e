package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"snakearena/internal/dependencies/mocks"
	"snakearena/internal/model"
	"snakearena/internal/services/identity"
	"snakearena/internal/storage/memory"
	"snakearena/internal/testutil"
)

const testBotToken = "123456:test-bot-token"

type IdentityServiceTestSuite struct {
	suite.Suite

	store   *memory.Storage
	random  *mocks.MockRandom
	service *identity.Service
}

func TestIdentityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceTestSuite))
}

func (s *IdentityServiceTestSuite) SetupTest() {
	s.store = memory.New()
	s.random = mocks.NewMockRandom()
	s.service = identity.New(s.store, s.random, testBotToken, testutil.NopLogger())
}

func (s *IdentityServiceTestSuite) TestResolve_ByToken() {
	existing := &model.Account{
		Token:   "tok_existing",
		ID:      "acc_existing",
		Name:    "Ada",
		Emoji:   "🐍",
		Credits: 3,
	}
	s.Require().NoError(s.store.CreateAccount(context.Background(), existing))

	account, err := s.service.Resolve(context.Background(), identity.Request{Token: "tok_existing"})
	s.Require().NoError(err)
	s.Equal(existing.ID, account.ID)
	s.Equal("Ada", account.Name)
	s.Equal(3, account.Credits)
}

func (s *IdentityServiceTestSuite) TestResolve_UnknownTokenFallsThroughToName() {
	s.random.QueueString("newtoken", "newid")

	account, err := s.service.Resolve(context.Background(), identity.Request{
		Token: "tok_bogus",
		Name:  "Guest",
	})
	s.Require().NoError(err)
	s.Equal("Guest", account.Name)
	s.Equal(model.Token("tok_newtoken"), account.Token)
	s.Zero(account.Credits)
}

func (s *IdentityServiceTestSuite) TestResolve_SignedPayloadCreatesAccount() {
	s.random.QueueString("exttoken", "extid")

	auth := map[string]string{
		"id":         "777000",
		"first_name": "Grace",
		"username":   "ghopper",
	}
	auth["hash"] = identity.Sign(testBotToken, auth)

	account, err := s.service.Resolve(context.Background(), identity.Request{Auth: auth})
	s.Require().NoError(err)
	s.Equal("Grace", account.Name)
	s.Equal("777000", account.ExternalID)
	s.Equal("ghopper", account.Nickname)

	// Resolving the same payload again finds the same account.
	again, err := s.service.Resolve(context.Background(), identity.Request{Auth: auth})
	s.Require().NoError(err)
	s.Equal(account.ID, again.ID)
}

func (s *IdentityServiceTestSuite) TestResolve_TamperedPayloadRejected() {
	auth := map[string]string{
		"id":         "777000",
		"first_name": "Grace",
	}
	auth["hash"] = identity.Sign(testBotToken, auth)
	auth["first_name"] = "Mallory"

	_, err := s.service.Resolve(context.Background(), identity.Request{Auth: auth})
	s.Require().ErrorIs(err, model.ErrInvalidAuth)
}

func (s *IdentityServiceTestSuite) TestResolve_WrongSecretRejected() {
	auth := map[string]string{
		"id": "777000",
	}
	auth["hash"] = identity.Sign("other-bot-token", auth)

	_, err := s.service.Resolve(context.Background(), identity.Request{Auth: auth})
	s.Require().ErrorIs(err, model.ErrInvalidAuth)
}

func (s *IdentityServiceTestSuite) TestResolve_EmptyRequestRejected() {
	_, err := s.service.Resolve(context.Background(), identity.Request{})
	s.Require().ErrorIs(err, model.ErrInvalidAuth)
}

func (s *IdentityServiceTestSuite) TestResolve_LeastUsedEmoji() {
	ctx := context.Background()

	// Seed one account per emoji except the third.
	for i, emoji := range model.Emojis {
		if i == 2 {
			continue
		}
		s.Require().NoError(s.store.CreateAccount(ctx, &model.Account{
			Token: model.Token("tok_seed_" + emoji),
			ID:    model.AccountID("acc_seed_" + emoji),
			Name:  "seed",
			Emoji: emoji,
		}))
	}

	s.random.QueueString("fresh", "freshid")
	account, err := s.service.Resolve(ctx, identity.Request{Name: "Fresh"})
	s.Require().NoError(err)
	s.Equal(model.Emojis[2], account.Emoji)
}

func (s *IdentityServiceTestSuite) TestResolve_EmojiTieBreaksByOrder() {
	s.random.QueueString("t1", "i1")
	account, err := s.service.Resolve(context.Background(), identity.Request{Name: "First"})
	s.Require().NoError(err)
	s.Equal(model.Emojis[0], account.Emoji)
}
