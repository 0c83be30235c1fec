// Package chat 把周报摘要同步到团队聊天频道
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"
)

// Poster 向某个频道发送纯文本
type Poster interface {
	Post(ctx context.Context, text string) error
	Name() string
}

// slackClient 抽象 slack.Client 用到的方法，便于测试
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

type SlackPoster struct {
	client    slackClient
	channelID string
}

func NewSlackPoster(botToken, channelID string) (*SlackPoster, error) {
	if botToken == "" || channelID == "" {
		return nil, errors.New("slack: bot token and channel id are required")
	}
	return &SlackPoster{client: slackapi.New(botToken), channelID: channelID}, nil
}

func (p *SlackPoster) Name() string { return "slack" }

func (p *SlackPoster) Post(ctx context.Context, text string) error {
	_, _, err := p.client.PostMessageContext(ctx, p.channelID, slackapi.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

// discordSession 抽象 discordgo.Session 用到的方法
type discordSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordPoster struct {
	sess      discordSession
	channelID string
}

// NewDiscordPoster 只走 REST 接口，不建立 Gateway 连接
func NewDiscordPoster(botToken, channelID string) (*DiscordPoster, error) {
	if botToken == "" || channelID == "" {
		return nil, errors.New("discord: bot token and channel id are required")
	}
	sess, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &DiscordPoster{sess: sess, channelID: channelID}, nil
}

func (p *DiscordPoster) Name() string { return "discord" }

// Discord 单条消息上限 2000 字符
const discordMaxLen = 2000

func (p *DiscordPoster) Post(ctx context.Context, text string) error {
	if r := []rune(text); len(r) > discordMaxLen {
		text = string(r[:discordMaxLen-3]) + "..."
	}
	_, err := p.sess.ChannelMessageSend(p.channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord post: %w", err)
	}
	return nil
}
