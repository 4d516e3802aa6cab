package services

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ddries/radiobot-rbpwh/pkg/monitoring"
	"github.com/ddries/radiobot-rbpwh/v1/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// writeBackTimeout bounds the detached reconciliation write
const writeBackTimeout = 5 * time.Second

// PatreonAPI is the outbound surface the service needs from the Patreon client
type PatreonAPI interface {
	// FetchMemberRaw returns the member-detail response verbatim
	FetchMemberRaw(ctx context.Context, memberID string) ([]byte, error)
	// FetchMemberConnections returns the member's connected-account data
	FetchMemberConnections(ctx context.Context, memberID string) (*models.MemberConnections, error)
}

// MembershipService provides business logic for pledge ingestion and resolution
type MembershipService struct {
	db            *gorm.DB
	patreon       PatreonAPI
	webhookSecret []byte
	scanLimit     int

	// writeBacks tracks in-flight reconciliation writes so tests can wait
	// for the fire-and-forget path to settle
	writeBacks sync.WaitGroup
}

// NewMembershipService creates a new membership service
func NewMembershipService(db *gorm.DB, patreonClient PatreonAPI, webhookSecret string, scanLimit int) (*MembershipService, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if patreonClient == nil {
		return nil, fmt.Errorf("patreon client is required")
	}
	return &MembershipService{
		db:            db,
		patreon:       patreonClient,
		webhookSecret: []byte(webhookSecret),
		scanLimit:     scanLimit,
	}, nil
}

// VerifySignature checks the webhook signature against an HMAC-MD5 digest of
// the raw, unparsed body. The digest must be computed over the exact bytes
// received, before any JSON handling, so re-serialization cannot skew it.
func (s *MembershipService) VerifySignature(rawBody []byte, signature string) error {
	if signature == "" {
		return models.ErrSignatureMissing
	}

	mac := hmac.New(md5.New, s.webhookSecret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return models.ErrSignatureMismatch
	}
	return nil
}

// IngestPledge authenticates and processes one webhook delivery. Signature
// failures are returned to the caller; everything after authentication is
// swallowed so the sender never retries a local fault it cannot fix.
func (s *MembershipService) IngestPledge(ctx context.Context, rawBody []byte, signature string) error {
	if err := s.VerifySignature(rawBody, signature); err != nil {
		return err
	}

	var event models.PledgeEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		slog.Warn("Discarding webhook with unparseable body", "operation", models.OpIngestPledge, "error", err)
		return nil
	}

	// Only a pledge-created shape carries data.id; anything else is
	// acknowledged without side effect
	if event.Data.ID == "" {
		return nil
	}

	record := ExtractMembership(&event)

	slog.Info("Received pledge", "pledgeId", record.PledgeID)

	if err := s.createMembership(ctx, record); err != nil {
		slog.Error("Failed to persist pledge record",
			"operation", models.OpIngestPledge,
			"pledgeId", record.PledgeID,
			"error", err)
		monitoring.RecordBusinessEvent(ctx, models.OpIngestPledge, false)
		return nil
	}

	monitoring.RecordBusinessEvent(ctx, models.OpIngestPledge, true)
	return nil
}

// createMembership upserts the record keyed by pledge_id. Attribute columns
// are refreshed on redelivery; a discord_userid already on the row is never
// cleared by an event that lacks one.
func (s *MembershipService) createMembership(ctx context.Context, record *models.Membership) error {
	assigned := []string{
		"user_full_name", "email", "patreon_userid",
		"purchased_at", "next_charge_date", "user_created_date",
	}
	if record.DiscordUserID != nil {
		assigned = append(assigned, "discord_userid")
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pledge_id"}},
		DoUpdates: clause.AssignmentColumns(assigned),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrMembershipCreateFailed, err)
	}
	return nil
}

// FetchPledgeByID proxies the member-detail query and returns the raw
// Patreon response verbatim. No local state is touched.
func (s *MembershipService) FetchPledgeByID(ctx context.Context, pledgeID string) ([]byte, error) {
	body, err := s.patreon.FetchMemberRaw(ctx, pledgeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrResolutionFailed, err)
	}
	return body, nil
}

// ResolveByDiscordID returns the pledge id bound to the given Discord user.
// The store is consulted first; on a miss, unresolved records are scanned
// against the Patreon API in natural store order, first match wins, and the
// discovered mapping is written back without blocking the response.
func (s *MembershipService) ResolveByDiscordID(ctx context.Context, discordID string) (string, error) {
	var direct models.Membership
	err := s.db.WithContext(ctx).
		Select("pledge_id").
		Where("discord_userid = ?", discordID).
		First(&direct).Error
	if err == nil {
		return direct.PledgeID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: %w", models.ErrResolutionFailed, err)
	}

	return s.reverseScan(ctx, discordID)
}

// reverseScan walks records that are neither premium-active nor already
// bound to this user and asks Patreon for each one's connected accounts.
func (s *MembershipService) reverseScan(ctx context.Context, discordID string) (string, error) {
	query := s.db.WithContext(ctx).
		Where("is_active = ? AND (discord_userid IS NULL OR discord_userid <> ?)", false, discordID)
	if s.scanLimit > 0 {
		query = query.Limit(s.scanLimit)
	}

	var candidates []models.Membership
	if err := query.Find(&candidates).Error; err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrResolutionFailed, err)
	}

	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", models.ErrResolutionFailed, err)
		}

		connections, err := s.patreon.FetchMemberConnections(ctx, candidate.PledgeID)
		if err != nil {
			return "", fmt.Errorf("%w: %w", models.ErrResolutionFailed, err)
		}

		if connections.ConnectedDiscordUserID() != discordID {
			continue
		}

		pledgeID := connections.Data.ID
		monitoring.RecordScanCandidates(ctx, i+1, true)
		slog.Info("Reverse scan matched",
			"operation", models.OpReverseScan,
			"pledgeId", pledgeID,
			"candidatesVisited", i+1)

		s.writeBackDiscordID(pledgeID, discordID)
		return pledgeID, nil
	}

	monitoring.RecordScanCandidates(ctx, len(candidates), false)
	return "", models.ErrMembershipNotFound
}

// writeBackDiscordID persists a discovered mapping from a detached goroutine.
// The write is best effort: the response never waits for it and a failure
// only surfaces in the log. Setting the same value twice is a no-op, so a
// concurrent scan discovering the same mapping is harmless.
func (s *MembershipService) writeBackDiscordID(pledgeID, discordID string) {
	s.writeBacks.Add(1)
	go func() {
		defer s.writeBacks.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeBackTimeout)
		defer cancel()

		err := s.db.WithContext(ctx).
			Model(&models.Membership{}).
			Where("pledge_id = ?", pledgeID).
			Update("discord_userid", discordID).Error
		if err != nil {
			slog.Error("Failed to write back discovered mapping",
				"operation", models.OpWriteBackDiscordID,
				"pledgeId", pledgeID,
				"error", err)
			monitoring.RecordBusinessEvent(ctx, models.OpWriteBackDiscordID, false)
			return
		}

		monitoring.RecordBusinessEvent(ctx, models.OpWriteBackDiscordID, true)
	}()
}

// WaitForWriteBacks blocks until all in-flight write-backs settle. Tests use
// it to assert the eventually-consistent reconciliation write.
func (s *MembershipService) WaitForWriteBacks() {
	s.writeBacks.Wait()
}
