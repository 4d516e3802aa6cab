package models

// Membership represents a premium membership record in the system.
// A row is created when a pledge-created webhook is ingested and is later
// repaired with the Discord user id once the member connects their account.
type Membership struct {
	// PledgeID is the Patreon member identifier and the natural key
	PledgeID string `gorm:"column:pledge_id;type:varchar(255);primaryKey" json:"pledge_id"`
	// FullName is the member's full name as reported by Patreon
	FullName string `gorm:"column:user_full_name;type:varchar(255)" json:"user_full_name"`
	// Email is best effort: the pledge attribute first, the included user entity as fallback
	Email string `gorm:"column:email;type:varchar(255)" json:"email"`
	// PatreonUserID is the id of the included user entity
	PatreonUserID string `gorm:"column:patreon_userid;type:varchar(255)" json:"patreon_userid"`
	// DiscordUserID is NULL until resolved, unique once set. Nullable so
	// multiple unresolved rows coexist under the unique index; MySQL fires
	// ON DUPLICATE KEY UPDATE on any unique-key collision, and empty
	// strings would collide with each other.
	DiscordUserID *string `gorm:"column:discord_userid;type:varchar(255);uniqueIndex:idx_premium_discord_userid" json:"discord_userid"`
	// IsActive is maintained by an external activation process and never written here
	IsActive bool `gorm:"column:is_active;not null;default:false" json:"is_active"`
	// PurchasedAt is the pledge relationship start as epoch seconds, 0 when unknown
	PurchasedAt int64 `gorm:"column:purchased_at;not null;default:0" json:"purchased_at"`
	// NextChargeDate is epoch seconds, 0 when unknown
	NextChargeDate int64 `gorm:"column:next_charge_date;not null;default:0" json:"next_charge_date"`
	// UserCreatedDate is the Patreon account creation time as epoch seconds, 0 when unknown
	UserCreatedDate int64 `gorm:"column:user_created_date;not null;default:0" json:"user_created_date"`
}

// TableName specifies the table name for GORM
func (*Membership) TableName() string {
	return "premium"
}
