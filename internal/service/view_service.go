package service

import (
	"context"
	"sort"

	"github.com/mbeoliero/kit/log"
	"golang.org/x/sync/errgroup"

	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// ViewService assembles the conversation list shown to a user. Nothing is
// cached; every call recomputes the summaries.
type ViewService struct {
	*deps
	conversation *ConversationService
	identity     *IdentityService
	receipt      *ReceiptService
}

func newViewService(d *deps, conversation *ConversationService, identity *IdentityService, receipt *ReceiptService) *ViewService {
	return &ViewService{deps: d, conversation: conversation, identity: identity, receipt: receipt}
}

// GetConversations returns one summary per conversation of userId, most
// recently active first
func (s *ViewService) GetConversations(ctx context.Context, userId string) ([]*entity.ConversationSummary, error) {
	convs, err := s.conversation.ListForUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	summaries := make([]*entity.ConversationSummary, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	if limit := s.cfg.View.FanoutLimit; limit > 0 {
		g.SetLimit(limit)
	}
	for i, conv := range convs {
		g.Go(func() error {
			summary, err := s.summarize(gctx, conv, userId)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		ti, tj := summaries[i].SortTime(), summaries[j].SortTime()
		if ti != tj {
			return ti > tj
		}
		return summaries[i].Id > summaries[j].Id
	})
	return summaries, nil
}

func (s *ViewService) summarize(ctx context.Context, conv *entity.Conversation, userId string) (*entity.ConversationSummary, error) {
	others, err := s.identity.resolveExisting(ctx, conv.OtherParticipants(userId))
	if err != nil {
		return nil, err
	}

	last, err := s.repos.Message.GetLatest(ctx, conv.Id)
	if err != nil {
		log.CtxError(ctx, "get last message failed: conversation_id=%s, error=%v", conv.Id, err)
		return nil, errcode.ErrInternalServer
	}

	unread, err := s.receipt.UnreadCount(ctx, conv.Id, userId)
	if err != nil {
		return nil, err
	}

	return &entity.ConversationSummary{
		ConversationInfo:  conv.ToConversationInfo(),
		OtherParticipants: others,
		LastMessage:       last.ToMessageInfo(),
		UnreadCount:       unread,
	}, nil
}
