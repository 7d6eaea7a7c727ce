package service

import (
	"context"
	"errors"

	"github.com/mbeoliero/kit/log"
	"gorm.io/gorm"

	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/internal/metrics"
	"github.com/mbeoliero/parley/internal/notify"
	"github.com/mbeoliero/parley/internal/repository"
	"github.com/mbeoliero/parley/pkg/errcode"
	"github.com/mbeoliero/parley/pkg/idgen"
)

// Clock returns the current time in unix milliseconds
type Clock func() int64

// Option customizes every service built by NewServices
type Option func(*deps)

// WithClock replaces the wall clock, mainly for tests
func WithClock(now Clock) Option {
	return func(d *deps) { d.now = now }
}

// WithNotifier sets where change events are published
func WithNotifier(n notify.Notifier) Option {
	return func(d *deps) { d.notifier = n }
}

// deps is shared by every service
type deps struct {
	repos    *repository.Repositories
	cfg      *config.Config
	now      Clock
	notifier notify.Notifier
}

// Services holds all services
type Services struct {
	Identity     *IdentityService
	Presence     *PresenceService
	Typing       *TypingService
	Reaction     *ReactionService
	Receipt      *ReceiptService
	Message      *MessageService
	Conversation *ConversationService
	View         *ViewService
}

// NewServices creates all services over repos
func NewServices(repos *repository.Repositories, cfg *config.Config, opts ...Option) *Services {
	d := &deps{
		repos:    repos,
		cfg:      cfg,
		now:      entity.NowUnixMilli,
		notifier: notify.Nop{},
	}
	for _, opt := range opts {
		opt(d)
	}

	identity := newIdentityService(d)
	receipt := newReceiptService(d)
	conversation := newConversationService(d)
	return &Services{
		Identity:     identity,
		Presence:     newPresenceService(d),
		Typing:       newTypingService(d),
		Reaction:     newReactionService(d),
		Receipt:      receipt,
		Message:      newMessageService(d, receipt),
		Conversation: conversation,
		View:         newViewService(d, conversation, identity, receipt),
	}
}

func (d *deps) nextId(ctx context.Context) (string, error) {
	id, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate id failed: %v", err)
		return "", errcode.ErrInternalServer
	}
	return id, nil
}

// requireParticipant loads a conversation and checks that userId belongs to it
func (d *deps) requireParticipant(ctx context.Context, tx *gorm.DB, conversationId, userId string) (*entity.Conversation, error) {
	conv, err := d.repos.Conversation.GetById(ctx, tx, conversationId)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}
	if conv == nil {
		return nil, errcode.ErrConvNotFound
	}
	if !conv.HasParticipant(userId) {
		return nil, errcode.ErrNotParticipant
	}
	return conv, nil
}

// lockParticipant is requireParticipant inside tx after locking the
// conversation row. Writers of child rows take a shared lock and the
// cascade delete an exclusive one, so a child row is either committed
// before the delete starts or refused with ErrConvNotFound.
func (d *deps) lockParticipant(ctx context.Context, tx *gorm.DB, conversationId, userId, strength string) (*entity.Conversation, error) {
	ok, err := d.repos.Conversation.Lock(ctx, tx, conversationId, strength)
	if err != nil {
		log.CtxError(ctx, "lock conversation failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}
	if !ok {
		return nil, errcode.ErrConvNotFound
	}
	return d.requireParticipant(ctx, tx, conversationId, userId)
}

// bizError passes business errors through unchanged and hides anything
// else behind ErrInternalServer after logging it
func bizError(ctx context.Context, err error, action string) error {
	var e *errcode.Error
	if errors.As(err, &e) {
		return e
	}
	log.CtxError(ctx, "%s failed: %v", action, err)
	return errcode.ErrInternalServer
}

func observe(op string, err *error) {
	metrics.Observe(op, *err)
}
