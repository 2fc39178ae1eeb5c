// Package dupguard enforces the duplicate publication policy: the same object
// must not be published to the same chat (and account, where one is involved)
// more than once within a rolling 24-hour window, unless the policy toggles or
// the admin bypass say otherwise.
package dupguard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/internal/domain"
)

// DuplicateWindow is the rolling deny period. It ends "now" and is not
// calendar-day aligned.
const DuplicateWindow = 24 * time.Hour

// SettingKeyAdminBypass lets administrators publish past the policy.
const SettingKeyAdminBypass = "duplicates_admin_bypass"

// SettingKeyAllowed returns the settings key toggling duplicates for one
// publication type. All four default to false (duplicates forbidden).
func SettingKeyAllowed(t domain.PublicationType) string {
	return "duplicates_allowed_" + string(t)
}

// Decision is the structured outcome of a duplicate check. A denial is a
// business rule, not an error.
type Decision struct {
	Allowed bool
	Reason  string
}

// Guard checks publication history against the duplicate policy.
type Guard struct {
	history  domain.PublicationHistoryRepository
	settings domain.SettingsRepository
	users    domain.UserRepository
	logger   zerolog.Logger

	now func() time.Time
}

// New creates a new duplicate guard.
func New(
	history domain.PublicationHistoryRepository,
	settings domain.SettingsRepository,
	users domain.UserRepository,
	logger zerolog.Logger,
) *Guard {
	return &Guard{
		history:  history,
		settings: settings,
		users:    users,
		logger:   logger.With().Str("component", "duplicate_guard").Logger(),
		now:      time.Now,
	}
}

// CanPublish decides whether publishing objectID to chatID through the given
// account (nil for the bot path without an account dimension) is allowed for
// the user right now. The returned reason is operator-facing.
func (g *Guard) CanPublish(ctx context.Context, objectID, chatID uint, accountID *uint, pubType domain.PublicationType, userID int64) (Decision, error) {
	// 1. Admin bypass.
	bypass, err := g.settings.GetBool(ctx, SettingKeyAdminBypass, false)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read admin bypass setting: %w", err)
	}
	if bypass {
		isAdmin, err := g.users.IsAdmin(ctx, userID)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to check user role: %w", err)
		}
		if isAdmin {
			return Decision{Allowed: true, Reason: "Публикация разрешена (администратор)"}, nil
		}
	}

	// 2. Per-type toggle.
	allowed, err := g.settings.GetBool(ctx, SettingKeyAllowed(pubType), false)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read duplicate toggle: %w", err)
	}
	if allowed {
		return Decision{Allowed: true, Reason: "Публикация разрешена (дубликаты разрешены для этого типа)"}, nil
	}

	// 3. Rolling-window history check. The account dimension must match
	// exactly: with an account only same-account history counts, without one
	// only no-account history counts.
	now := g.now()
	since := now.Add(-DuplicateWindow)

	prior, err := g.history.FindRecent(ctx, objectID, chatID, accountID, since)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to query publication history: %w", err)
	}

	if prior != nil {
		g.logger.Debug().
			Uint("object_id", objectID).
			Uint("chat_id", chatID).
			Time("published_at", prior.PublishedAt).
			Msg("Publication denied by duplicate policy")

		return Decision{
			Allowed: false,
			Reason: fmt.Sprintf(
				"Объект уже публиковался в этот чат %s, повторная публикация возможна через 24 часа",
				prior.PublishedAt.Format("02.01.2006 15:04"),
			),
		}, nil
	}

	return Decision{Allowed: true, Reason: "Публикация разрешена"}, nil
}
