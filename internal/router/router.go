package router

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/npepeverse/pepebot/internal/moderation"
	"github.com/npepeverse/pepebot/internal/responses"
)

var tracer = otel.Tracer("github.com/npepeverse/pepebot/internal/router")

// DefaultPersona is the LLM system prompt. Placeholders are expanded by the table.
const DefaultPersona = "You are a crypto community bot for a meme coin called {ticker}. " +
	"Your personality is funny, enthusiastic, and a bit chaotic, like a frog who drank too much coffee. " +
	"Use crypto slang like 'fren', 'WAGMI', 'HODL', 'based', 'LFG', 'ribbit'. " +
	"Keep your answers short, hype-filled, and as helpful as possible. You represent the NPEPEVERSE. " +
	"The official contract address is {contract_address}; never share any other address or link."

// DefaultStartText answers /start and /help.
const DefaultStartText = "🐸 *Welcome to the {project} Bot!* 🔥\n\n" +
	"I can help you with project info or we can just chat. " +
	"Use the buttons below or ask me anything!"

// Options wires a Router. Table and Messenger are required; everything else
// is optional and disables its step when nil.
type Options struct {
	Table     *responses.Table
	Messenger Messenger

	Filter           *moderation.Filter
	Admins           AdminChecker
	OwnerID          int64
	ModerateAllChats bool

	LLM          Completer
	Persona      string
	ThinkingText string

	Rules       []Rule
	Interjector *Interjector
	StartText   string
}

// Router turns one inbound message into at most one outbound action.
type Router struct {
	opts Options
}

// New returns a Router; zero options fall back to defaults.
func New(opts Options) *Router {
	if opts.Rules == nil {
		opts.Rules = DefaultRules()
	}
	if opts.Persona == "" {
		opts.Persona = DefaultPersona
	}
	if opts.StartText == "" {
		opts.StartText = DefaultStartText
	}
	if opts.ThinkingText == "" {
		opts.ThinkingText = "🐸 The oracle is consulting the memes..."
	}
	return &Router{opts: opts}
}

// Handle routes msg. Steps run in priority order and the first that applies
// ends routing: welcome, moderation, commands, keyword rules, LLM question,
// private fallback, group interjection. External failures are logged and
// never returned.
func (r *Router) Handle(ctx context.Context, msg InboundMessage) Result {
	ctx, span := tracer.Start(ctx, "router.Handle")
	defer span.End()

	res := r.route(ctx, msg)
	span.SetAttributes(
		attribute.String("router.outcome", string(res.Outcome)),
		attribute.String("router.rule", res.Rule),
	)
	if res.Outcome != OutcomeNone {
		slog.Info("router: handled",
			"chat_id", msg.ChatID, "sender_id", msg.SenderID, "outcome", res.Outcome,
			"rule", res.Rule, "text", Preview(msg.Text))
	}
	return res
}

func (r *Router) route(ctx context.Context, msg InboundMessage) Result {
	if len(msg.NewMembers) > 0 {
		return r.welcome(ctx, msg)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return Result{Outcome: OutcomeNone}
	}

	if res, ok := r.moderate(ctx, msg, text); ok {
		return res
	}

	if isCommand(text, "start") || isCommand(text, "help") {
		reply := r.opts.Table.Expand(r.opts.StartText)
		r.send(ctx, msg.ChatID, reply, SendOptions{Markdown: true, Menu: true, ReplyTo: msg.MessageID})
		return Result{Outcome: OutcomeMenu, Rule: "start", Reply: reply}
	}

	lower := strings.ToLower(text)
	tokens := tokenize(lower)
	for _, rule := range r.opts.Rules {
		if !rule.matches(lower, tokens) {
			continue
		}
		reply := r.opts.Table.Pick(rule.Category)
		r.send(ctx, msg.ChatID, reply, SendOptions{Markdown: rule.Markdown, Menu: rule.Menu})
		return Result{Outcome: OutcomeKeyword, Rule: rule.Name, Reply: reply}
	}

	if r.opts.LLM != nil && IsQuestion(text) {
		return r.askLLM(ctx, msg, text)
	}

	if msg.ChatType == ChatPrivate {
		reply := r.opts.Table.Pick(responses.NoAIFallback)
		r.send(ctx, msg.ChatID, reply, SendOptions{Menu: true})
		return Result{Outcome: OutcomeNoAI, Reply: reply}
	}

	if msg.IsGroup() && r.opts.Interjector != nil && r.opts.Interjector.Decide(lower) {
		reply := r.opts.Table.Pick(responses.Hype)
		r.send(ctx, msg.ChatID, reply, SendOptions{})
		return Result{Outcome: OutcomeInterjected, Reply: reply}
	}

	return Result{Outcome: OutcomeNone}
}

// moderate deletes spam from non-exempt senders. Exemption is only looked up
// for messages already classified as spam, which keeps admin API calls rare.
func (r *Router) moderate(ctx context.Context, msg InboundMessage, text string) (Result, bool) {
	if r.opts.Filter == nil {
		return Result{}, false
	}
	if !msg.IsGroup() && !r.opts.ModerateAllChats {
		return Result{}, false
	}
	v := r.opts.Filter.Classify(text)
	if !v.Spam {
		return Result{}, false
	}
	if r.opts.OwnerID != 0 && msg.SenderID == r.opts.OwnerID {
		return Result{}, false
	}
	if r.opts.Admins != nil {
		admin, err := r.opts.Admins.IsAdmin(ctx, msg.ChatID, msg.SenderID)
		if err != nil {
			slog.Warn("router: admin list unavailable, spam kept", "chat_id", msg.ChatID,
				"sender_id", msg.SenderID, "reason", v.Reason, "error", err)
			return Result{}, false
		}
		if admin {
			return Result{}, false
		}
	}

	if err := r.opts.Messenger.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
		slog.Warn("router: delete spam failed", "chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
	}
	slog.Info("router: spam removed", "chat_id", msg.ChatID, "sender_id", msg.SenderID,
		"reason", v.Reason, "match", v.Match)
	return Result{Outcome: OutcomeDeleted, Rule: string(v.Reason)}, true
}

func (r *Router) welcome(ctx context.Context, msg InboundMessage) Result {
	names := strings.Join(msg.NewMembers, ", ")
	reply := strings.ReplaceAll(r.opts.Table.Pick(responses.Welcome), "{name}", names)
	r.send(ctx, msg.ChatID, reply, SendOptions{})
	return Result{Outcome: OutcomeWelcomed, Reply: reply}
}

// askLLM shows a placeholder, then edits it into the answer. On failure the
// placeholder is removed and a canned fallback is sent instead.
func (r *Router) askLLM(ctx context.Context, msg InboundMessage, text string) Result {
	placeholder, err := r.opts.Messenger.SendText(ctx, msg.ChatID, r.opts.ThinkingText, SendOptions{ReplyTo: msg.MessageID})
	if err != nil {
		slog.Warn("router: send placeholder failed", "chat_id", msg.ChatID, "error", err)
		placeholder = 0
	}

	answer, err := r.opts.LLM.Complete(ctx, r.opts.Table.Expand(r.opts.Persona), text)
	if err != nil {
		slog.Warn("router: llm failed, using fallback", "chat_id", msg.ChatID, "error", err)
		if placeholder != 0 {
			if err := r.opts.Messenger.DeleteMessage(ctx, msg.ChatID, placeholder); err != nil {
				slog.Warn("router: delete placeholder failed", "chat_id", msg.ChatID, "error", err)
			}
		}
		reply := r.opts.Table.Pick(responses.FinalFallback)
		r.send(ctx, msg.ChatID, reply, SendOptions{})
		return Result{Outcome: OutcomeLLMFailed, Reply: reply}
	}

	if placeholder != 0 {
		err := r.opts.Messenger.EditText(ctx, msg.ChatID, placeholder, answer, SendOptions{})
		if err == nil {
			return Result{Outcome: OutcomeLLM, Reply: answer}
		}
		slog.Warn("router: edit placeholder failed, sending answer", "chat_id", msg.ChatID, "error", err)
	}
	r.send(ctx, msg.ChatID, answer, SendOptions{ReplyTo: msg.MessageID})
	return Result{Outcome: OutcomeLLM, Reply: answer}
}

// HandleCallback serves the inline menu buttons. The callback is always
// answered so the client stops its spinner.
func (r *Router) HandleCallback(ctx context.Context, cb Callback) {
	if err := r.opts.Messenger.AnswerCallback(ctx, cb.ID); err != nil {
		slog.Warn("router: answer callback failed", "callback_id", cb.ID, "error", err)
	}

	var cat responses.Category
	switch cb.Data {
	case "about":
		cat = responses.About
	case "ca":
		cat = responses.ContractAddress
	default:
		slog.Debug("router: ignoring callback", "data", cb.Data)
		return
	}
	if cb.MessageID == 0 {
		return
	}
	text := r.opts.Table.Pick(cat)
	if err := r.opts.Messenger.EditText(ctx, cb.ChatID, cb.MessageID, text, SendOptions{Markdown: true, Menu: true}); err != nil {
		slog.Warn("router: edit menu failed", "chat_id", cb.ChatID, "data", cb.Data, "error", err)
	}
}

func (r *Router) send(ctx context.Context, chatID int64, text string, opts SendOptions) {
	if _, err := r.opts.Messenger.SendText(ctx, chatID, text, opts); err != nil {
		slog.Warn("router: send failed", "chat_id", chatID, "error", err)
	}
}

// isCommand matches "/name" and "/name@botname", with or without arguments.
func isCommand(text, name string) bool {
	if !strings.HasPrefix(text, "/") {
		return false
	}
	cmd := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.EqualFold(cmd, name)
}
