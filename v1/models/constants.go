package models

// Bridge log operations
const (
	OpIngestPledge       = "ingest pledge"
	OpFetchPledgeByID    = "fetch pledge by id"
	OpResolveByDiscordID = "resolve pledge by discord id"
	OpWriteBackDiscordID = "write back discord id"
	OpReverseScan        = "reverse scan"
)

// SignatureHeader is the webhook signature header set by Patreon
const SignatureHeader = "X-Patreon-Signature"
