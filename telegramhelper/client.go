package telegramhelper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/researchaccelerator-hub/comment-harvester/bot"
	"github.com/rs/zerolog"
	"github.com/zelenin/go-tdlib/client"
)

// TDLibBotClient is the part of the TDLib client the bot calls directly.
// The concrete *client.Client satisfies it; tests use a mock.
type TDLibBotClient interface {
	SendMessage(req *client.SendMessageRequest) (*client.Message, error)
	GetMe() (*client.User, error)
	Close() (*client.Ok, error)
}

// BotConfig holds what is needed to log a bot into Telegram through TDLib.
type BotConfig struct {
	Token       string
	APIID       int32
	APIHash     string
	StorageRoot string
	SendTimeout time.Duration
}

var errSendFailed = errors.New("telegram reported the message as not sent")

// Bot is a TDLib bot session. It receives text messages and implements
// bot.Delivery for replies and document uploads.
type Bot struct {
	tdlib       *client.Client
	api         TDLibBotClient
	tracker     *sendTracker
	sendTimeout time.Duration
	logger      zerolog.Logger
}

// NewBot logs in with the bot token and returns a ready session.
//
// TDLib keeps its database under <StorageRoot>/state/.tdlib so restarts reuse
// the authorized session.
func NewBot(cfg BotConfig, logger zerolog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	dbDir := filepath.Join(cfg.StorageRoot, "state", ".tdlib", "database")
	filesDir := filepath.Join(cfg.StorageRoot, "state", ".tdlib", "files")
	for _, dir := range []string{dbDir, filesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create TDLib directory %s: %w", dir, err)
		}
	}
	logger.Info().Msgf("Using TDLib database directory: %s", dbDir)

	authorizer := client.BotAuthorizer(cfg.Token)
	authorizer.TdlibParameters <- &client.SetTdlibParametersRequest{
		UseTestDc:           false,
		DatabaseDirectory:   dbDir,
		FilesDirectory:      filesDir,
		UseFileDatabase:     true,
		UseChatInfoDatabase: true,
		UseMessageDatabase:  true,
		UseSecretChats:      false,
		ApiId:               cfg.APIID,
		ApiHash:             cfg.APIHash,
		SystemLanguageCode:  "en",
		DeviceModel:         "Server",
		SystemVersion:       "1.0.0",
		ApplicationVersion:  "1.0.0",
	}

	if _, err := client.SetLogVerbosityLevel(&client.SetLogVerbosityLevelRequest{NewVerbosityLevel: 1}); err != nil {
		logger.Warn().Err(err).Msg("Failed to set TDLib log verbosity")
	}

	clientReady := make(chan *client.Client, 1)
	errChan := make(chan error, 1)

	go func() {
		tdlibClient, err := client.NewClient(authorizer)
		if err != nil {
			errChan <- fmt.Errorf("failed to initialize TDLib client: %w", err)
			return
		}
		clientReady <- tdlibClient
	}()

	var tdlibClient *client.Client
	select {
	case tdlibClient = <-clientReady:
	case err := <-errChan:
		logger.Error().Err(err).Msg("Error initializing client")
		return nil, err
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("Timeout reached while logging the bot in")
		return nil, fmt.Errorf("timeout initializing TDLib client")
	}

	b := newBot(tdlibClient, tdlibClient, cfg.SendTimeout, logger)
	me, err := b.api.GetMe()
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to retrieve bot user: %w", err)
	}
	logger.Info().Msgf("Logged in as: %s", me.FirstName)
	return b, nil
}

func newBot(tdlib *client.Client, api TDLibBotClient, sendTimeout time.Duration, logger zerolog.Logger) *Bot {
	if sendTimeout <= 0 {
		sendTimeout = 2 * time.Minute
	}
	return &Bot{
		tdlib:       tdlib,
		api:         api,
		tracker:     newSendTracker(),
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Run reads updates until ctx is cancelled and hands every incoming text
// message to handle. handle must not block for long; the dispatcher runs each
// message on its own goroutine.
func (b *Bot) Run(ctx context.Context, handle func(ctx context.Context, msg bot.IncomingMessage)) error {
	if b.tdlib == nil {
		return fmt.Errorf("telegram client not connected")
	}

	listener := b.tdlib.GetListener()
	defer listener.Close()

	b.logger.Info().Msg("Listening for Telegram updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-listener.Updates:
			if !ok {
				return fmt.Errorf("telegram update stream closed")
			}
			b.handleUpdate(ctx, update, handle)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update client.Type, handle func(ctx context.Context, msg bot.IncomingMessage)) {
	switch upd := update.(type) {
	case *client.UpdateNewMessage:
		if msg, ok := incomingText(upd.Message); ok {
			handle(ctx, msg)
		}
	case *client.UpdateMessageSendSucceeded:
		b.tracker.resolve(upd.OldMessageId, nil)
	case *client.UpdateMessageSendFailed:
		b.tracker.resolve(upd.OldMessageId, errSendFailed)
	}
}

// incomingText extracts a text message sent to the bot by someone else.
func incomingText(message *client.Message) (bot.IncomingMessage, bool) {
	if message == nil || message.IsOutgoing {
		return bot.IncomingMessage{}, false
	}
	content, ok := message.Content.(*client.MessageText)
	if !ok || content.Text == nil {
		return bot.IncomingMessage{}, false
	}
	return bot.IncomingMessage{ChatID: message.ChatId, Text: content.Text.Text}, true
}

// SendText sends a plain text reply.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := b.api.SendMessage(&client.SendMessageRequest{
		ChatId: chatID,
		InputMessageContent: &client.InputMessageText{
			Text: &client.FormattedText{Text: text},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendDocument uploads the file at path and waits until Telegram confirms the
// upload, so the caller may delete the file afterwards. Telegram names the
// attachment after the file on disk.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, path, name string) error {
	sent, err := b.api.SendMessage(&client.SendMessageRequest{
		ChatId: chatID,
		InputMessageContent: &client.InputMessageDocument{
			Document: &client.InputFileLocal{Path: path},
			Caption:  &client.FormattedText{Text: name},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}

	done := b.tracker.expect(sent.Id)
	timer := time.NewTimer(b.sendTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		b.tracker.forget(sent.Id)
		return fmt.Errorf("timed out after %s waiting for upload of %s", b.sendTimeout, name)
	case <-ctx.Done():
		b.tracker.forget(sent.Id)
		return ctx.Err()
	}
}

// Close shuts the TDLib client down.
func (b *Bot) Close() {
	if b.api == nil {
		return
	}
	b.logger.Debug().Msg("Closing tdlibClient...")
	if _, err := b.api.Close(); err != nil {
		b.logger.Error().Err(err).Msg("Error closing tdlibClient")
		return
	}
	b.logger.Info().Msg("tdlibClient closed successfully")
}

var _ bot.Delivery = (*Bot)(nil)
