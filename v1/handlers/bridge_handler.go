package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ddries/radiobot-rbpwh/v1/models"
	"github.com/ddries/radiobot-rbpwh/v1/services"
	"github.com/ddries/radiobot-rbpwh/v1/utils"
)

// webhookBodyLimit caps webhook payloads; Patreon envelopes are small
const webhookBodyLimit = 1 << 20 // 1 MiB

// BridgeHandler handles the webhook and resolution HTTP surface
type BridgeHandler struct {
	membershipService *services.MembershipService
}

// NewBridgeHandler creates a new bridge handler
func NewBridgeHandler(membershipService *services.MembershipService) *BridgeHandler {
	return &BridgeHandler{
		membershipService: membershipService,
	}
}

// Liveness handles GET /
func (h *BridgeHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HealthCheck handles GET /health
func (h *BridgeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]string{
		"service": "rbpwh",
		"status":  "healthy",
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// IngestWebhook handles POST /bridge.
// The signature is verified against the exact bytes received; once the
// request authenticates, the response is 200 regardless of persistence
// outcome so Patreon never disables delivery over a local fault.
func (h *BridgeHandler) IngestWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed, "Method not allowed")
		return
	}

	// An oversized body must fail loudly, not get truncated into a
	// signature mismatch
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.RespondWithError(w, http.StatusRequestEntityTooLarge, models.ErrorCodeBadRequest, "Request body too large")
			return
		}
		slog.Error("Failed to read webhook body", "operation", models.OpIngestPledge, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Failed to read request body")
		return
	}

	signature := r.Header.Get(models.SignatureHeader)

	err = h.membershipService.IngestPledge(r.Context(), rawBody, signature)
	if err != nil {
		if errors.Is(err, models.ErrSignatureMissing) || errors.Is(err, models.ErrSignatureMismatch) {
			utils.RespondWithError(w, http.StatusForbidden, models.ErrorCodeForbidden, "Invalid webhook signature")
			return
		}
		// Not reachable today: post-authentication faults are swallowed by
		// the service. Kept so a future error path fails loudly.
		utils.RespondWithError(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Failed to process webhook")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// FetchPledgeByID handles GET /fetch_pledge_by_id?p=<pledgeId>.
// The Patreon member-detail response is returned verbatim.
func (h *BridgeHandler) FetchPledgeByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed, "Method not allowed")
		return
	}

	pledgeID := r.URL.Query().Get("p")
	if pledgeID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, models.ErrorCodeBadRequest, "query parameter p is required")
		return
	}

	body, err := h.membershipService.FetchPledgeByID(r.Context(), pledgeID)
	if err != nil {
		slog.Error("Failed to fetch pledge detail",
			"operation", models.OpFetchPledgeByID,
			"pledgeId", pledgeID,
			"error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Failed to fetch pledge")
		return
	}

	utils.RespondWithRawJSON(w, http.StatusOK, body)
}

// FetchPledgeByDiscordID handles GET /fetch_pledge_by_discord_id?u=<discordId>
func (h *BridgeHandler) FetchPledgeByDiscordID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed, "Method not allowed")
		return
	}

	discordID := r.URL.Query().Get("u")
	if discordID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, models.ErrorCodeBadRequest, "query parameter u is required")
		return
	}

	pledgeID, err := h.membershipService.ResolveByDiscordID(r.Context(), discordID)
	if err != nil {
		// An exhausted scan is a legitimate terminal state, not a server error
		if errors.Is(err, models.ErrMembershipNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, models.ErrorCodeNotFound, "No pledge found for this user")
			return
		}

		slog.Error("Failed to resolve pledge by discord id",
			"operation", models.OpResolveByDiscordID,
			"error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Failed to resolve pledge")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.PledgeResponse{PledgeID: pledgeID})
}
