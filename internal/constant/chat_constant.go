package constant

const (
	ChatMessageRoleSystem    = "system"
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

// SessionHeader carries the negotiated session id in both directions.
const SessionHeader = "X-Session-Id"

// Sections the assistant may navigate the page to via a trailing
// [SECTION:x] directive.
var NavigableSections = []string{"about", "projects", "skills", "experience", "contact"}

// PublicSystemPrompt is injected as the leading system message of every
// public conversation. It is transparent to the client: the injected
// message never counts against role-alternation checks.
const PublicSystemPrompt = `You are the assistant on my personal portfolio site. Answer questions about my work, projects, skills and experience in a friendly, concise voice. When the visitor asks to see a part of the site, append exactly one tag of the form [SECTION:name] to the END of your reply, where name is one of: about, projects, skills, experience, contact. Never place the tag anywhere but the very end, and never use more than one.`

// AdminSystemPrompt is the variant used behind the admin login. Same
// protocol, looser persona.
const AdminSystemPrompt = `You are the admin-side assistant of my portfolio site. You may discuss drafts, unpublished projects and site internals candidly. The [SECTION:name] tag convention applies unchanged.`

// Greetings that short-circuit the provider entirely when the
// conversation is still fresh.
var CannedGreetingTriggers = []string{"hi", "hello", "hey", "test"}

const (
	GreetingMorning   = "Good morning! I'm the assistant for this portfolio - ask me about projects, skills or anything else on the site."
	GreetingAfternoon = "Good afternoon! I'm the assistant for this portfolio - ask me about projects, skills or anything else on the site."
	GreetingEvening   = "Good evening! I'm the assistant for this portfolio - ask me about projects, skills or anything else on the site."
)

// StreamErrorMessage is the human-readable frame written when a stream
// fails after partial output.
const StreamErrorMessage = "Sorry, something went wrong while writing this reply. Please try again."
