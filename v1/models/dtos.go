package models

// PledgeEvent is the webhook envelope delivered by Patreon. Only the fields
// the bridge consumes are declared; everything else is ignored on decode.
type PledgeEvent struct {
	Data     PledgeData       `json:"data"`
	Included []IncludedEntity `json:"included"`
}

// PledgeData is the primary resource of the webhook envelope
type PledgeData struct {
	ID         string           `json:"id"`
	Attributes PledgeAttributes `json:"attributes"`
}

// PledgeAttributes carries the pledge-level fields used for ingestion.
// Dates arrive as RFC 3339 strings and may be absent.
type PledgeAttributes struct {
	Email                   string `json:"email"`
	FullName                string `json:"full_name"`
	NextChargeDate          string `json:"next_charge_date"`
	PledgeRelationshipStart string `json:"pledge_relationship_start"`
}

// IncludedEntity is a side-loaded resource of the envelope or of a Patreon
// API response. For pledge events, index 1 is the user entity.
type IncludedEntity struct {
	ID         string         `json:"id"`
	Attributes UserAttributes `json:"attributes"`
}

// UserAttributes carries the user-level fields used for ingestion and
// reverse resolution
type UserAttributes struct {
	Email             string             `json:"email"`
	Created           string             `json:"created"`
	SocialConnections *SocialConnections `json:"social_connections"`
}

// SocialConnections holds the user's linked external accounts
type SocialConnections struct {
	Discord *DiscordConnection `json:"discord"`
}

// DiscordConnection is the linked Discord account
type DiscordConnection struct {
	UserID string `json:"user_id"`
}

// DiscordUserID walks the social-connections chain and returns the linked
// Discord user id. Any missing intermediate yields "", never an error.
func (a *UserAttributes) DiscordUserID() string {
	if a == nil || a.SocialConnections == nil || a.SocialConnections.Discord == nil {
		return ""
	}
	return a.SocialConnections.Discord.UserID
}

// UserEntity returns the included user entity of a pledge event, which
// Patreon delivers at index 1, or nil when the envelope is short.
func (e *PledgeEvent) UserEntity() *IncludedEntity {
	if len(e.Included) < 2 {
		return nil
	}
	return &e.Included[1]
}

// MemberConnections is the trimmed Patreon API response for a member-detail
// query with include=user. The user entity is the first included resource.
type MemberConnections struct {
	Data     PledgeData       `json:"data"`
	Included []IncludedEntity `json:"included"`
}

// ConnectedDiscordUserID returns the Discord user id reported for the
// member's connected user entity, or "" when no connection exists.
func (m *MemberConnections) ConnectedDiscordUserID() string {
	if len(m.Included) == 0 {
		return ""
	}
	return m.Included[0].Attributes.DiscordUserID()
}

// PledgeResponse is the resolution response body
type PledgeResponse struct {
	PledgeID string `json:"pledge_id"`
}
