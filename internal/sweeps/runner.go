package sweeps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ssupport/internal/config"
	"ssupport/internal/metrics"
	"ssupport/internal/moderation"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const unbanReason = "Temp ban expired"

// Runner owns the periodic maintenance jobs: lifting expired temp-bans,
// the weekly warning reset and trimming in-memory moderation state.
type Runner struct {
	cfg     config.SweepConfig
	store   *storage.Store
	state   *moderation.State
	actions moderation.Actions
	audit   *audit.Logger
	logger  *zap.Logger
	clock   moderation.Clock
	limiter *rate.Limiter

	mu        sync.Mutex
	lastReset string
}

type ExpiryStats struct {
	Due      int
	Unbanned int
	Failed   int
}

type dueBan struct {
	key     string
	guildID string
	userID  string
	ban     storage.TempBan
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func New(cfg config.SweepConfig, store *storage.Store, state *moderation.State, actions moderation.Actions, auditLogger *audit.Logger, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	perSecond := cfg.UnbansPerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	return &Runner{
		cfg:     cfg,
		store:   store,
		state:   state,
		actions: actions,
		audit:   auditLogger,
		logger:  logger,
		clock:   realClock{},
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

func (r *Runner) WithClock(clock moderation.Clock) {
	r.clock = clock
}

// ExpireTempBans lifts every temp-ban whose unban time has passed. Platform
// calls run against a snapshot outside the document lock; the ledger is
// then rewritten once, removing only the records that were processed. A
// ban that is already gone counts as processed, any other failure leaves
// the record for the next pass.
func (r *Runner) ExpireTempBans(ctx context.Context) ExpiryStats {
	timer := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("temp_ban_expiry").Observe(time.Since(timer).Seconds())
	}()

	now := r.clock.Now()
	due := collectDue(r.store.Ledger(), now)
	stats := ExpiryStats{Due: len(due)}
	if len(due) == 0 {
		return stats
	}

	processed := make([]dueBan, 0, len(due))
	for _, item := range due {
		if err := r.limiter.Wait(ctx); err != nil {
			r.logger.Warn("temp ban sweep interrupted", zap.Error(err))
			break
		}
		err := r.actions.Unban(ctx, item.guildID, item.userID, unbanReason)
		if err != nil && !errors.Is(err, moderation.ErrNotFound) {
			stats.Failed++
			metrics.Unbans.WithLabelValues("failed").Inc()
			r.logger.Warn("unban failed", zap.String("guild_id", item.guildID), zap.String("user_id", item.userID), zap.Error(err))
			continue
		}
		processed = append(processed, item)
		stats.Unbanned++
		metrics.Unbans.WithLabelValues("unbanned").Inc()
		r.audit.Log(ctx, audit.LevelInfo, item.guildID, item.userID, "temp_ban_expired", item.ban.Reason)

		if err == nil {
			dm := &discordgo.MessageEmbed{
				Title:       "Temporary Ban Expired",
				Description: fmt.Sprintf("You have been unbanned from %s. You can rejoin the server now.", r.actions.GuildName(ctx, item.guildID)),
			}
			if derr := r.actions.DirectMessage(ctx, item.userID, dm); derr != nil {
				r.logger.Debug("unban dm failed", zap.String("user_id", item.userID), zap.Error(derr))
			}
		}
	}

	if len(processed) == 0 {
		return stats
	}
	err := r.store.UpdateLedger(func(ledger storage.Ledger) (bool, error) {
		changed := false
		for _, item := range processed {
			state := ledger[item.key]
			if state == nil {
				continue
			}
			for i, ban := range state.TempBans {
				if ban == item.ban {
					state.TempBans = append(state.TempBans[:i], state.TempBans[i+1:]...)
					changed = true
					break
				}
			}
			if len(state.TempBans) == 0 {
				state.TempBans = nil
			}
		}
		return changed, nil
	})
	if err != nil {
		r.logger.Error("persist temp ban sweep failed", zap.Error(err))
	}
	return stats
}

func collectDue(ledger storage.Ledger, now time.Time) []dueBan {
	var due []dueBan
	for key, state := range ledger {
		if len(state.TempBans) == 0 {
			continue
		}
		guildID, userID, ok := storage.SplitLedgerKey(key)
		if !ok {
			continue
		}
		if state.GuildID != "" {
			guildID = state.GuildID
		}
		for _, ban := range state.TempBans {
			if ban.Due(now) {
				due = append(due, dueBan{key: key, guildID: guildID, userID: userID, ban: ban})
			}
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].ban.UnbanTime != due[j].ban.UnbanTime {
			return due[i].ban.UnbanTime < due[j].ban.UnbanTime
		}
		return due[i].key < due[j].key
	})
	return due
}

// WeeklyReset empties every non-empty warning list when today is the
// configured reset day. It runs at most once per calendar day and only
// rewrites the ledger when something was cleared. It returns the number of
// users reset and whether a reset pass ran.
func (r *Runner) WeeklyReset(ctx context.Context) (int, bool) {
	now := r.clock.Now()
	if now.Weekday() != r.cfg.ResetWeekday() {
		return 0, false
	}
	day := now.Format("2006-01-02")

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastReset == day {
		return 0, false
	}

	cleared := 0
	err := r.store.UpdateLedger(func(ledger storage.Ledger) (bool, error) {
		for _, state := range ledger {
			if len(state.Warns) > 0 {
				state.Warns = []storage.WarningRecord{}
				cleared++
			}
		}
		return cleared > 0, nil
	})
	if err != nil {
		r.logger.Error("weekly warning reset failed", zap.Error(err))
		return 0, false
	}
	r.lastReset = day
	if cleared > 0 {
		metrics.WarningResets.Add(float64(cleared))
		r.logger.Info("weekly warning reset completed", zap.Int("users", cleared))
		r.audit.Log(ctx, audit.LevelInfo, "", "", "weekly_warning_reset", fmt.Sprintf("%d users reset", cleared))
	}
	return cleared, true
}

func (r *Runner) CleanupEphemeral() moderation.CleanupStats {
	stats := r.state.Cleanup(r.clock.Now())
	if stats.WindowsDropped > 0 || stats.CountersDecayed > 0 {
		r.logger.Debug("ephemeral state cleanup",
			zap.Int("windows_dropped", stats.WindowsDropped),
			zap.Int("counters_decayed", stats.CountersDecayed),
			zap.Int("counters_dropped", stats.CountersDropped))
	}
	return stats
}

// Start launches the three sweep loops; they stop when ctx is done. The
// temp-ban pass also runs once immediately so bans that expired while the
// process was down are lifted on startup.
func (r *Runner) Start(ctx context.Context) {
	r.loop(ctx, "temp_ban_expiry", minutes(r.cfg.TempBanIntervalMinutes, 60), true, func() {
		r.ExpireTempBans(ctx)
	})
	r.loop(ctx, "weekly_reset", hours(r.cfg.WeeklyResetCheckHours, 24), true, func() {
		r.WeeklyReset(ctx)
	})
	r.loop(ctx, "ephemeral_cleanup", minutes(r.cfg.CleanupIntervalMinutes, 30), false, func() {
		r.CleanupEphemeral()
	})
}

func (r *Runner) loop(ctx context.Context, name string, every time.Duration, immediate bool, run func()) {
	safeRun := func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("sweep panicked", zap.String("sweep", name), zap.Any("panic", rec))
			}
		}()
		run()
	}
	go func() {
		if immediate {
			safeRun()
		}
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				safeRun()
			}
		}
	}()
}

func minutes(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Minute
}

func hours(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Hour
}
