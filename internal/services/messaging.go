package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/neocare-api/internal/apperr"
	"github.com/harentsoaR/neocare-api/internal/models"
	"github.com/harentsoaR/neocare-api/internal/store"
	"github.com/harentsoaR/neocare-api/internal/utils"
)

const maxMessageLength = 5000

// Principal is the authenticated caller, as read from a verified token.
type Principal struct {
	ID         string
	Role       models.Role
	HospitalID string
}

// MessagingService stores direct messages between two accounts that are related:
// a parent and a doctor of their care team, a hospital and its own doctors or
// parents, or the superadmin and a hospital.
type MessagingService struct {
	store       *store.Store
	affiliation *AffiliationService
	log         zerolog.Logger
	now         func() time.Time
}

func NewMessagingService(s *store.Store, affiliation *AffiliationService, log zerolog.Logger) *MessagingService {
	return &MessagingService{
		store:       s,
		affiliation: affiliation,
		log:         log.With().Str("component", "messaging").Logger(),
		now:         time.Now,
	}
}

var errNotRelated = apperr.Forbidden("you cannot message this user")

// authorize returns the other party's role if the caller may talk to otherID.
func (s *MessagingService) authorize(ctx context.Context, caller Principal, otherID string) (models.Role, error) {
	if otherID == "" {
		return "", apperr.Validation("receiverId is required", "receiverId")
	}
	if otherID == caller.ID {
		return "", apperr.Validation("you cannot message yourself", "receiverId")
	}
	other, ok := models.RoleFromID(otherID)
	if !ok {
		return "", errNotRelated
	}

	var err error
	switch {
	case caller.Role == models.RoleParent && other == models.RoleDoctor:
		err = s.parentDoctor(ctx, caller.ID, otherID)
	case caller.Role == models.RoleDoctor && other == models.RoleParent:
		err = s.parentDoctor(ctx, otherID, caller.ID)
	case caller.Role == models.RoleAdmin && (other == models.RoleDoctor || other == models.RoleParent):
		err = s.memberOf(ctx, other, otherID, caller.ID)
	case (caller.Role == models.RoleDoctor || caller.Role == models.RoleParent) && other == models.RoleAdmin:
		err = s.memberOf(ctx, caller.Role, caller.ID, otherID)
	case caller.Role == models.RoleSuperadmin && other == models.RoleAdmin:
		_, err = s.store.Hospitals.GetByID(ctx, otherID)
	case caller.Role == models.RoleAdmin && other == models.RoleSuperadmin:
		_, err = s.store.Superadmins.GetByID(ctx, otherID)
	default:
		return "", errNotRelated
	}

	if errors.Is(err, store.ErrNotFound) {
		return "", errNotRelated
	}
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", apperr.Wrap(err, "failed to check message recipient")
	}
	return other, nil
}

func (s *MessagingService) parentDoctor(ctx context.Context, parentID, doctorID string) error {
	_, err := s.affiliation.ParentForDoctor(ctx, doctorID, parentID)
	if apperr.Is(err, apperr.KindNotFound) {
		return store.ErrNotFound
	}
	return err
}

// memberOf succeeds when the doctor or parent id belongs to hospitalID.
func (s *MessagingService) memberOf(ctx context.Context, role models.Role, id, hospitalID string) error {
	if role == models.RoleDoctor {
		_, err := s.store.Doctors.GetInHospital(ctx, hospitalID, id)
		return err
	}
	_, err := s.store.Parents.GetInHospital(ctx, hospitalID, id)
	return err
}

// requireVerifiedHospital refuses writes by an admin whose hospital is not verified.
// Conversations with the superadmin stay open.
func (s *MessagingService) requireVerifiedHospital(ctx context.Context, caller Principal, other models.Role) error {
	if caller.Role != models.RoleAdmin || other == models.RoleSuperadmin {
		return nil
	}
	h, err := s.store.Hospitals.GetByID(ctx, caller.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Forbidden("Hospital account not found")
	}
	if err != nil {
		return apperr.Wrap(err, "failed to load hospital")
	}
	if h.Status != models.HospitalVerified {
		return HospitalLocked(h.Status)
	}
	return nil
}

func (s *MessagingService) Send(ctx context.Context, caller Principal, receiverID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("message content is required", "content")
	}
	if len(content) > maxMessageLength {
		return nil, apperr.Validation("message content is too long", "content")
	}
	other, err := s.authorize(ctx, caller, receiverID)
	if err != nil {
		return nil, err
	}
	if err := s.requireVerifiedHospital(ctx, caller, other); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             utils.NewID("msg"),
		ConversationID: utils.ConversationID(caller.ID, receiverID),
		SenderID:       caller.ID,
		ReceiverID:     receiverID,
		SenderRole:     caller.Role,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.store.Messages.Create(ctx, msg); err != nil {
		return nil, writeErr(err, "message")
	}
	return msg, nil
}

func (s *MessagingService) Conversation(ctx context.Context, caller Principal, otherID string) ([]*models.Message, error) {
	if _, err := s.authorize(ctx, caller, otherID); err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages.ListConversation(ctx, utils.ConversationID(caller.ID, otherID))
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load conversation")
	}
	return msgs, nil
}

// MarkRead marks every message otherID sent to the caller as read.
func (s *MessagingService) MarkRead(ctx context.Context, caller Principal, otherID string) (int64, error) {
	other, err := s.authorize(ctx, caller, otherID)
	if err != nil {
		return 0, err
	}
	if err := s.requireVerifiedHospital(ctx, caller, other); err != nil {
		return 0, err
	}
	n, err := s.store.Messages.MarkRead(ctx, utils.ConversationID(caller.ID, otherID), caller.ID)
	if err != nil {
		return 0, apperr.Wrap(err, "failed to mark messages read")
	}
	return n, nil
}

func (s *MessagingService) UnreadCount(ctx context.Context, caller Principal) (int64, error) {
	n, err := s.store.Messages.CountUnread(ctx, caller.ID)
	if err != nil {
		return 0, apperr.Wrap(err, "failed to count unread messages")
	}
	return n, nil
}
