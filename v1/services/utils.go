package services

import (
	"time"

	"github.com/ddries/radiobot-rbpwh/v1/models"
)

// Utility functions for payload normalization

// ExtractMembership builds a membership record from a verified pledge event.
// Optional fields fall back through the included user entity; dates normalize
// to 0 rather than erroring.
func ExtractMembership(event *models.PledgeEvent) *models.Membership {
	attrs := event.Data.Attributes

	record := &models.Membership{
		PledgeID:       event.Data.ID,
		FullName:       attrs.FullName,
		Email:          attrs.Email,
		NextChargeDate: parseDateToEpochSeconds(attrs.NextChargeDate),
		PurchasedAt:    parseDateToEpochSeconds(attrs.PledgeRelationshipStart),
	}

	user := event.UserEntity()
	if user != nil {
		record.PatreonUserID = user.ID
		record.UserCreatedDate = parseDateToEpochSeconds(user.Attributes.Created)

		// Unconnected members store NULL, not "", so unresolved rows do
		// not collide on the discord_userid unique index
		if discordID := user.Attributes.DiscordUserID(); discordID != "" {
			record.DiscordUserID = &discordID
		}

		// The pledge-level email is sometimes absent; the user entity
		// carries it as a second chance
		if record.Email == "" {
			record.Email = user.Attributes.Email
		}
	}

	return record
}

// parseDateToEpochSeconds normalizes an RFC 3339 date string to epoch
// seconds. Millisecond precision is truncated by integer division; an
// absent or unparseable date yields 0, never an error.
func parseDateToEpochSeconds(value string) int64 {
	if value == "" {
		return 0
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0
	}

	millis := parsed.UnixMilli()
	if millis <= 0 {
		return 0
	}
	return millis / 1000
}
