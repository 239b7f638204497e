package economy

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"snakearena/internal/dependencies/clock"
	"snakearena/internal/model"
	"snakearena/internal/storage"
)

const (
	// CooldownDuration is how long an account waits after spending its
	// last credit.
	CooldownDuration = 60 * time.Minute

	// GrantAmount is the number of credits a confirmed payment awards.
	GrantAmount = 10
)

// Admission is the outcome of an admission check.
type Admission struct {
	Admitted bool
	// WaitMinutes is how long until the account may play again, rounded
	// up. Only meaningful when Admitted is false.
	WaitMinutes int
}

// Settlement is the per-account outcome of a round settlement.
type Settlement struct {
	Token         model.Token
	Credits       int
	CooldownUntil time.Time
	WaitMinutes   int
	// Dropped reports that the account has no credits left and must
	// leave the arena.
	Dropped bool
}

// Service arbitrates play admission through credits and cooldowns.
type Service struct {
	store  storage.Store
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a new economy Service.
func New(store storage.Store, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

// CheckAdmission decides whether an account may enter the arena. Holding
// credits admits; otherwise the cooldown must have expired.
func (s *Service) CheckAdmission(account *model.Account) Admission {
	if account.Credits > 0 {
		return Admission{Admitted: true}
	}
	now := s.clock.Now()
	if !account.OnCooldown(now) {
		return Admission{Admitted: true}
	}
	return Admission{WaitMinutes: waitMinutes(account.CooldownUntil, now)}
}

// SettleRound charges one credit to each participant of a finished round.
// Any account left with no credits afterwards is reported dropped and must
// leave the arena. The 60-minute cooldown starts only on the spend that
// drained the balance, and only when no cooldown is already running.
func (s *Service) SettleRound(ctx context.Context, tokens []model.Token) ([]Settlement, error) {
	now := s.clock.Now()
	settlements := make([]Settlement, 0, len(tokens))

	for _, token := range tokens {
		account, err := s.store.AccountByToken(ctx, token)
		if err != nil {
			return nil, err
		}

		settlement := Settlement{
			Token:         token,
			Credits:       account.Credits,
			CooldownUntil: account.CooldownUntil,
		}

		if account.Credits > 0 {
			settlement.Credits = account.Credits - 1
			if err := s.store.UpdateCredits(ctx, token, settlement.Credits); err != nil {
				return nil, err
			}
			if settlement.Credits == 0 {
				settlement.Dropped = true
				if !account.CooldownUntil.After(now) {
					settlement.CooldownUntil = now.Add(CooldownDuration)
					if err := s.store.UpdateCooldown(ctx, token, settlement.CooldownUntil); err != nil {
						return nil, err
					}
					s.logger.Info("cooldown started",
						slog.String("token", string(token)),
						slog.Time("until", settlement.CooldownUntil),
					)
				}
			}
		} else {
			settlement.Dropped = true
		}

		if settlement.CooldownUntil.After(now) {
			settlement.WaitMinutes = waitMinutes(settlement.CooldownUntil, now)
		}

		settlements = append(settlements, settlement)
	}

	return settlements, nil
}

// Grant adds amount credits to an account and clears any active cooldown.
func (s *Service) Grant(ctx context.Context, token model.Token, amount int) (*model.Account, error) {
	account, err := s.store.AccountByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	account.Credits += amount
	if err := s.store.UpdateCredits(ctx, token, account.Credits); err != nil {
		return nil, err
	}
	if account.CooldownUntil.After(s.clock.Now()) {
		account.CooldownUntil = time.Time{}
		if err := s.store.UpdateCooldown(ctx, token, account.CooldownUntil); err != nil {
			return nil, err
		}
	}

	s.logger.Info("credits granted",
		slog.String("token", string(token)),
		slog.Int("amount", amount),
		slog.Int("balance", account.Credits),
	)

	return account, nil
}

// ApplySecretCode interprets free text as a credit adjustment code. The
// day's code grants one credit; the reversed code removes one, floored at
// zero. Returns the updated account and true when text matched a code.
func (s *Service) ApplySecretCode(ctx context.Context, token model.Token, text string) (*model.Account, bool, error) {
	code := SecretCode(s.clock.Now())
	trimmed := strings.TrimSpace(text)

	var delta int
	switch trimmed {
	case code:
		delta = 1
	case reverse(code):
		delta = -1
	default:
		return nil, false, nil
	}

	account, err := s.store.AccountByToken(ctx, token)
	if err != nil {
		return nil, false, err
	}

	account.Credits += delta
	if account.Credits < 0 {
		account.Credits = 0
	}
	if err := s.store.UpdateCredits(ctx, token, account.Credits); err != nil {
		return nil, false, err
	}

	s.logger.Info("secret code applied",
		slog.String("token", string(token)),
		slog.Int("delta", delta),
		slog.Int("balance", account.Credits),
	)

	return account, true, nil
}

// SecretCode derives the day's code from the date: day, month and year
// digits concatenated without padding.
func SecretCode(t time.Time) string {
	return strconv.Itoa(t.Day()) + strconv.Itoa(int(t.Month())) + strconv.Itoa(t.Year())
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// waitMinutes reports minutes until the cooldown expires, rounded up.
func waitMinutes(until time.Time, now time.Time) int {
	remaining := until.Sub(now)
	if remaining <= 0 {
		return 0
	}
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute != 0 {
		minutes++
	}
	return minutes
}
