package router

import "context"

// Telegram chat types the router distinguishes.
const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSupergroup = "supergroup"
)

// InboundMessage is the part of a chat update the router reads.
type InboundMessage struct {
	ChatID     int64
	ChatType   string
	MessageID  int
	SenderID   int64
	SenderName string
	Text       string
	NewMembers []string // display names of members who just joined
}

// IsGroup reports whether the message came from a group or supergroup.
func (m InboundMessage) IsGroup() bool {
	return m.ChatType == ChatGroup || m.ChatType == ChatSupergroup
}

// Callback is an inline keyboard button press.
type Callback struct {
	ID        string
	ChatID    int64
	MessageID int
	Data      string
}

// SendOptions shapes an outbound message.
type SendOptions struct {
	Markdown bool // legacy Markdown parse mode
	Menu     bool // attach the main inline menu
	ReplyTo  int  // message id to reply to, 0 for none
}

// Messenger is the outbound chat API.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, opts SendOptions) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Completer answers a free-form question.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AdminChecker reports chat administrators. An error means the answer is
// unknown.
type AdminChecker interface {
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}

// Outcome is the single action the router took for a message.
type Outcome string

const (
	OutcomeNone        Outcome = "none"
	OutcomeWelcomed    Outcome = "welcomed"
	OutcomeDeleted     Outcome = "deleted"
	OutcomeMenu        Outcome = "menu"
	OutcomeKeyword     Outcome = "keyword"
	OutcomeLLM         Outcome = "llm"
	OutcomeLLMFailed   Outcome = "llm_fallback"
	OutcomeNoAI        Outcome = "no_ai_fallback"
	OutcomeInterjected Outcome = "interjected"
)

// Result describes what Handle decided and did.
type Result struct {
	Outcome Outcome
	Rule    string // keyword rule name or moderation reason
	Reply   string // text sent, if any
}
