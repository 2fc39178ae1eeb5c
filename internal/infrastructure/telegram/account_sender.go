package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"

	"github.com/estateflow/publisher/config"
	"github.com/estateflow/publisher/internal/domain"
)

// channelIDOffset is the bot-API prefix marking channel/supergroup IDs.
const channelIDOffset = -1000000000000

const connectTimeout = 2 * time.Minute

// AccountSender sends publications through user-owned MTProto accounts. One
// lazily-connected client is kept per account phone.
type AccountSender struct {
	apiID      int
	apiHash    string
	sessionDir string

	mu      sync.Mutex
	clients map[string]*mtprotoClient

	logger zerolog.Logger
}

// NewAccountSender creates the MTProto send path from config
func NewAccountSender(cfg *config.TelegramConfig, logger zerolog.Logger) *AccountSender {
	return &AccountSender{
		apiID:      cfg.APIID,
		apiHash:    cfg.APIHash,
		sessionDir: cfg.SessionDir,
		clients:    make(map[string]*mtprotoClient),
		logger:     logger.With().Str("component", "account_sender").Logger(),
	}
}

// client returns a connected client for the phone, connecting lazily.
func (s *AccountSender) client(ctx context.Context, phone string) (*mtprotoClient, error) {
	s.mu.Lock()
	c, ok := s.clients[phone]
	if !ok {
		c = newMTProtoClient(s.apiID, s.apiHash, phone, s.sessionDir, s.logger)
		s.clients[phone] = c
	}
	s.mu.Unlock()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := c.connect(connectCtx); err != nil {
		return nil, err
	}
	return c, nil
}

// Close disconnects all account clients.
func (s *AccountSender) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.disconnect(ctx)
	}
}

// SendText sends a text message through the account's session
func (s *AccountSender) SendText(ctx context.Context, phone string, chatID int64, text string) (*domain.SendResult, error) {
	c, err := s.client(ctx, phone)
	if err != nil {
		return nil, err
	}

	api, err := c.apiClient()
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	peer, err := s.resolvePeer(ctx, api, chatID)
	if err != nil {
		return nil, err
	}

	updates, err := api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  text,
		RandomID: rand.Int63(),
	})
	if err != nil {
		return nil, s.mapError(err, phone, chatID)
	}

	return &domain.SendResult{MessageID: extractMessageID(updates)}, nil
}

// SendPhoto sends a photo with caption through the account's session
func (s *AccountSender) SendPhoto(ctx context.Context, phone string, chatID int64, caption, photoURL string) (*domain.SendResult, error) {
	c, err := s.client(ctx, phone)
	if err != nil {
		return nil, err
	}

	api, err := c.apiClient()
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	peer, err := s.resolvePeer(ctx, api, chatID)
	if err != nil {
		return nil, err
	}

	updates, err := api.MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
		Peer:     peer,
		Media:    &tg.InputMediaPhotoExternal{URL: photoURL},
		Message:  caption,
		RandomID: rand.Int63(),
	})
	if err != nil {
		return nil, s.mapError(err, phone, chatID)
	}

	return &domain.SendResult{MessageID: extractMessageID(updates)}, nil
}

// JoinChat subscribes the account to a chat by invite link or @username.
func (s *AccountSender) JoinChat(ctx context.Context, phone, link string) (bool, error) {
	c, err := s.client(ctx, phone)
	if err != nil {
		return false, err
	}

	api, err := c.apiClient()
	if err != nil {
		return false, err
	}

	if err := c.wait(ctx); err != nil {
		return false, err
	}

	if hash, ok := inviteHash(link); ok {
		_, err := api.MessagesImportChatInvite(ctx, hash)
		if err != nil {
			if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
				return true, nil
			}
			return false, s.mapJoinError(err, phone, link)
		}
		return false, nil
	}

	username := strings.TrimPrefix(strings.TrimPrefix(link, "https://t.me/"), "@")
	resolved, err := api.ContactsResolveUsername(ctx, username)
	if err != nil {
		return false, s.mapJoinError(err, phone, link)
	}

	for _, chat := range resolved.Chats {
		if channel, ok := chat.(*tg.Channel); ok {
			_, err := api.ChannelsJoinChannel(ctx, &tg.InputChannel{
				ChannelID:  channel.ID,
				AccessHash: channel.AccessHash,
			})
			if err != nil {
				if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
					return true, nil
				}
				return false, s.mapJoinError(err, phone, link)
			}
			return false, nil
		}
	}

	return false, fmt.Errorf("%w: %s", domain.ErrInvalidChatLink, link)
}

// inviteHash extracts the hash from t.me invite links.
func inviteHash(link string) (string, bool) {
	for _, prefix := range []string{"https://t.me/+", "https://t.me/joinchat/", "t.me/+", "t.me/joinchat/"} {
		if strings.HasPrefix(link, prefix) {
			return strings.TrimPrefix(link, prefix), true
		}
	}
	return "", false
}

// resolvePeer builds an input peer from a bot-API style chat ID. Channel
// access hashes are recovered through ChannelsGetChannels, which succeeds for
// chats the account is a member of.
func (s *AccountSender) resolvePeer(ctx context.Context, api *tg.Client, chatID int64) (tg.InputPeerClass, error) {
	if chatID < channelIDOffset {
		channelID := channelIDOffset - chatID

		chats, err := api.ChannelsGetChannels(ctx, []tg.InputChannelClass{
			&tg.InputChannel{ChannelID: channelID},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to resolve channel %d: %v", domain.ErrChatUnreachable, chatID, err)
		}

		for _, chat := range chats.GetChats() {
			if channel, ok := chat.(*tg.Channel); ok {
				return &tg.InputPeerChannel{
					ChannelID:  channel.ID,
					AccessHash: channel.AccessHash,
				}, nil
			}
		}
		return nil, fmt.Errorf("%w: channel %d not found", domain.ErrChatUnreachable, chatID)
	}

	if chatID < 0 {
		return &tg.InputPeerChat{ChatID: -chatID}, nil
	}

	return &tg.InputPeerUser{UserID: chatID}, nil
}

// extractMessageID pulls the provider message ID out of the updates response.
func extractMessageID(updates tg.UpdatesClass) int {
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID
	case *tg.Updates:
		for _, upd := range u.Updates {
			if m, ok := upd.(*tg.UpdateMessageID); ok {
				return m.ID
			}
		}
	}
	return 0
}

// mapError translates MTProto send errors into the domain taxonomy.
func (s *AccountSender) mapError(err error, phone string, chatID int64) error {
	if wait, ok := tgerr.AsFloodWait(err); ok {
		s.logger.Warn().Str("phone", maskPhone(phone)).Int64("chat_id", chatID).Dur("wait", wait).Msg("MTProto flood control")
		return &domain.FloodWaitError{RetryAfter: wait}
	}

	if tgerr.Is(err, "CHANNEL_PRIVATE", "CHAT_WRITE_FORBIDDEN", "PEER_ID_INVALID", "CHANNEL_INVALID", "USER_BANNED_IN_CHANNEL") {
		s.logger.Error().Err(err).Str("phone", maskPhone(phone)).Int64("chat_id", chatID).Msg("Chat unreachable via account")
		return fmt.Errorf("%w: %v", domain.ErrChatUnreachable, err)
	}

	s.logger.Error().Err(err).Str("phone", maskPhone(phone)).Int64("chat_id", chatID).Msg("Account send failed")
	return fmt.Errorf("account send failed: %w", err)
}

// mapJoinError translates join errors into the domain taxonomy.
func (s *AccountSender) mapJoinError(err error, phone, link string) error {
	if wait, ok := tgerr.AsFloodWait(err); ok {
		s.logger.Warn().Str("phone", maskPhone(phone)).Str("link", link).Dur("wait", wait).Msg("MTProto flood control on join")
		return &domain.FloodWaitError{RetryAfter: wait}
	}

	if tgerr.Is(err, "INVITE_HASH_EXPIRED", "INVITE_HASH_INVALID", "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID", "CHANNELS_TOO_MUCH") {
		return fmt.Errorf("%w: %v", domain.ErrInvalidChatLink, err)
	}

	s.logger.Error().Err(err).Str("phone", maskPhone(phone)).Str("link", link).Msg("Chat join failed")
	return fmt.Errorf("chat join failed: %w", err)
}

// Ensure AccountSender implements domain.AccountSender interface
var _ domain.AccountSender = (*AccountSender)(nil)
