// Package relay turns one inbound message into one outbound reply:
// quota check, intent, adapter call, formatting and counting.
package relay

import (
	"Relay/ai"
	"Relay/core"
	"Relay/holder"
	"Relay/intent"
	"Relay/lib/sl"
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
)

type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyPhoto
)

// Reply carries either Text or PhotoURL with Caption, never both.
type Reply struct {
	Kind     ReplyKind
	Text     string
	PhotoURL string
	Caption  string
	Intent   intent.Kind
	Outcome  core.Outcome
}

type Adapter interface {
	Invoke(ctx context.Context, text string) ai.Result
}

type Adapters struct {
	Chat   Adapter
	Search Adapter
	Image  Adapter
}

type Pipeline struct {
	keeper   *holder.QuotaKeeper
	adapters Adapters
	limits   core.Limits
	log      *slog.Logger
}

func NewPipeline(keeper *holder.QuotaKeeper, adapters Adapters, limits core.Limits, log *slog.Logger) *Pipeline {
	return &Pipeline{
		keeper:   keeper,
		adapters: adapters,
		limits:   limits,
		log:      log.With(sl.Module("pipeline")),
	}
}

// Handle processes one text message. The request counter moves only when a reply
// was produced and the user was under quota.
func (p *Pipeline) Handle(ctx context.Context, profile core.Profile, text string) Reply {
	log := p.log.With(
		sl.User(profile.UserId),
		slog.String("request", uuid.NewString()),
	)

	unlock := p.keeper.Lock(profile.UserId)
	defer unlock()

	user, _ := p.keeper.EnsureUser(ctx, profile)
	if user.DailyRequests >= p.limits.DailyRequests {
		log.Info("daily limit reached", slog.Int("daily", user.DailyRequests))
		return Reply{
			Kind:    ReplyText,
			Text:    limitReachedText(p.limits.DailyRequests),
			Outcome: core.OutcomeLimited,
		}
	}

	kind := intent.Classify(text)
	log = log.With(slog.String("intent", kind.String()))
	log.Info("incoming message", sl.Text(text))

	var reply Reply
	var pc panics.Catcher
	pc.Try(func() {
		reply = p.compose(ctx, kind, text)
	})
	if r := pc.Recovered(); r != nil {
		log.Error("processing message", sl.Text(text), sl.Err(r.AsError()))
		return Reply{
			Kind:    ReplyText,
			Text:    processingErrorText,
			Intent:  kind,
			Outcome: core.OutcomeFailed,
		}
	}

	p.keeper.Increment(ctx, profile.UserId)
	log.Info("request processed", slog.String("outcome", reply.Outcome.String()))
	return reply
}

func (p *Pipeline) compose(ctx context.Context, kind intent.Kind, text string) Reply {
	switch kind {
	case intent.Image:
		res := p.adapters.Image.Invoke(ctx, text)
		return Reply{
			Kind:     ReplyPhoto,
			PhotoURL: res.ImageURL,
			Caption:  Caption(text),
			Intent:   kind,
			Outcome:  res.Outcome,
		}
	case intent.Search:
		res := p.adapters.Search.Invoke(ctx, text)
		return p.textReply(kind, res)
	default:
		res := p.adapters.Chat.Invoke(ctx, text)
		return p.textReply(kind, res)
	}
}

func (p *Pipeline) textReply(kind intent.Kind, res ai.Result) Reply {
	if res.Err != nil {
		p.log.Debug("adapter fallback used", slog.String("intent", kind.String()), sl.Err(res.Err))
	}
	return Reply{
		Kind:    ReplyText,
		Text:    Truncate(res.Text, p.limits.MaxMessageLength),
		Intent:  kind,
		Outcome: res.Outcome,
	}
}

// Start registers the sender and returns the welcome text.
func (p *Pipeline) Start(ctx context.Context, profile core.Profile) Reply {
	unlock := p.keeper.Lock(profile.UserId)
	defer unlock()

	_, outcome := p.keeper.Register(ctx, profile)
	return Reply{Kind: ReplyText, Text: welcomeText(p.limits.DailyRequests), Outcome: outcome}
}

func (p *Pipeline) Help() Reply {
	return Reply{Kind: ReplyText, Text: helpText(p.limits.DailyRequests)}
}

func (p *Pipeline) Status(ctx context.Context, userId int64) Reply {
	user, outcome := p.keeper.Lookup(ctx, userId)
	if user == nil {
		return Reply{Kind: ReplyText, Text: userNotFoundText, Outcome: outcome}
	}
	return Reply{Kind: ReplyText, Text: statusText(user, p.limits.DailyRequests), Outcome: outcome}
}

// Truncate keeps texts within max runes, cutting to max-100 and appending the continuation notice.
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max-100]) + continuationNotice
}

func Caption(text string) string {
	r := []rune(text)
	if len(r) > 50 {
		r = r[:50]
	}
	return captionPrefix + string(r) + "..."
}
