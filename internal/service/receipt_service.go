package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/pkg/constant"
	"github.com/mbeoliero/parley/pkg/errcode"
)

// ReceiptService keeps one read watermark per (conversation, user)
type ReceiptService struct {
	*deps
}

func newReceiptService(d *deps) *ReceiptService {
	return &ReceiptService{deps: d}
}

// MarkRead moves the caller's watermark to now. It never moves backwards.
func (s *ReceiptService) MarkRead(ctx context.Context, conversationId, userId string) (err error) {
	defer observe("mark_read", &err)

	now := s.now()
	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.lockParticipant(ctx, tx, conversationId, userId, clause.LockingStrengthShare); err != nil {
			return err
		}
		return s.repos.Receipt.Advance(ctx, tx, conversationId, userId, now)
	})
	if err != nil {
		return bizError(ctx, err, "mark read")
	}

	s.notifier.Publish(ctx, constant.TopicConversation(conversationId))
	return nil
}

// Watermark returns the last read time of userId in a conversation, 0 when
// the user never read it
func (s *ReceiptService) Watermark(ctx context.Context, conversationId, userId string) (int64, error) {
	receipt, err := s.repos.Receipt.Get(ctx, conversationId, userId)
	if err != nil {
		log.CtxError(ctx, "get read receipt failed: conversation_id=%s, user_id=%s, error=%v", conversationId, userId, err)
		return 0, errcode.ErrInternalServer
	}
	if receipt == nil {
		return 0, nil
	}
	return receipt.LastReadTime, nil
}

// Watermarks returns every participant watermark of a conversation by user id
func (s *ReceiptService) Watermarks(ctx context.Context, conversationId string) (map[string]int64, error) {
	receipts, err := s.repos.Receipt.ListByConversation(ctx, conversationId)
	if err != nil {
		log.CtxError(ctx, "list read receipts failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}
	out := make(map[string]int64, len(receipts))
	for _, r := range receipts {
		out[r.UserId] = r.LastReadTime
	}
	return out, nil
}

// UnreadCount counts messages from others created after the watermark
func (s *ReceiptService) UnreadCount(ctx context.Context, conversationId, userId string) (int64, error) {
	watermark, err := s.Watermark(ctx, conversationId, userId)
	if err != nil {
		return 0, err
	}
	count, err := s.repos.Message.CountUnread(ctx, conversationId, userId, watermark)
	if err != nil {
		log.CtxError(ctx, "count unread failed: conversation_id=%s, user_id=%s, error=%v", conversationId, userId, err)
		return 0, errcode.ErrInternalServer
	}
	return count, nil
}
