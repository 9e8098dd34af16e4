package shared

const (
	// fiber locals keys set by the device auth middleware
	DeviceID  = "device_id"
	UserEmail = "user_email"

	// document store collections
	UsersCollection               = "enhanced_users"
	EpisodePromptsCollection      = "episode_prompts"
	TranscriptsCollection         = "conversation_transcripts"
	SummariesCollection           = "conversation_summaries"
	DeviceRegistrationsCollection = "device_registrations"
	ClaimTokensCollection         = "claim_tokens"
	DeviceSessionsCollection      = "device_sessions"

	SpeakerUser   = "user"
	SpeakerBot    = "bot"
	SpeakerSystem = "system"

	ConversationActive      = "active"
	ConversationCompleted   = "completed"
	ConversationInterrupted = "interrupted"

	DeviceStatusRegistered = "registered"
	DeviceStatusClaimed    = "claimed"
	DeviceStatusActive     = "active"

	ClaimTokenActive = "active"
	ClaimTokenUsed   = "used"

	// content is organized as a fixed season/episode grid
	MaxSeason  = 10
	MaxEpisode = 7
)
