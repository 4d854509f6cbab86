package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/comebin/ecobin-bot/internal/bot/keyboard"
	apperrors "github.com/comebin/ecobin-bot/internal/errors"
	"github.com/comebin/ecobin-bot/pkg/metrics"
)

const redeemDataPrefix = "redeem_"

// HandleRedeemRewards lists the rewards available for redemption.
func HandleRedeemRewards(rewards Rewards, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		list, err := rewards.List(context.Background())
		if err != nil {
			return fmt.Errorf("list rewards: %w", err)
		}

		if err := ackCallback(c); err != nil {
			return err
		}

		if len(list) == 0 {
			return c.Edit("🎁 No rewards available right now. Check back soon!", kb.BackToMenu())
		}

		return c.Edit("🎁 *Available rewards*\n\nTap a reward to redeem it:", kb.RewardList(list), telebot.ModeMarkdown)
	}
}

// HandleRedeem settles a redemption and reports the outcome, including the
// voucher code when the reward issues one.
func HandleRedeem(users Users, arbiter Arbiter, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Callback() == nil {
			return nil
		}

		data := strings.TrimPrefix(strings.TrimPrefix(c.Callback().Data, "\f"), redeemDataPrefix)
		rewardID, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return respondCallback(c, "Unknown reward.", true)
		}

		ctx := context.Background()
		user, err := users.FindByTelegramID(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				metrics.RecordRedemption("not_registered")
				return respondNotRegistered(c)
			}
			return fmt.Errorf("look up user %d: %w", c.Sender().ID, err)
		}

		receipt, err := arbiter.Redeem(ctx, user.ID, rewardID)
		if err != nil {
			return handleRedeemError(c, log, user.ID, rewardID, err)
		}

		metrics.RecordRedemption("success")
		log.Info("reward redeemed",
			slog.Int64("user_id", user.ID),
			slog.Int64("reward_id", rewardID),
			slog.Int64("new_balance", receipt.NewBalance),
		)

		if err := ackCallback(c); err != nil {
			return err
		}

		text := fmt.Sprintf(
			"✅ *%s* redeemed!\n\n💰 *Remaining balance:* %d points.",
			receipt.RewardName, receipt.NewBalance,
		)
		if receipt.Code != nil {
			text += fmt.Sprintf("\n\n🎟 Your code: `%s`\nShow it at the counter to claim your reward.", *receipt.Code)
		}

		return c.Edit(text, kb.BackToMenu(), telebot.ModeMarkdown)
	}
}

func handleRedeemError(c telebot.Context, log *slog.Logger, userID, rewardID int64, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrRewardNotFound):
		metrics.RecordRedemption("not_found")
		return respondCallback(c, "This reward is no longer available.", true)
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		metrics.RecordRedemption("insufficient_balance")
		return respondCallback(c, "You don't have enough points for this reward yet. Keep recycling! ♻️", true)
	case errors.Is(err, apperrors.ErrOutOfStock):
		metrics.RecordRedemption("out_of_stock")
		return respondCallback(c, "This reward is out of stock.", true)
	case errors.Is(err, apperrors.ErrCodePoolExhausted):
		metrics.RecordRedemption("code_pool_exhausted")
		log.Error("redemption code pool exhausted", slog.Int64("reward_id", rewardID))
		return respondCallback(c, "This reward ran out of codes. Please try again later.", true)
	case errors.Is(err, apperrors.ErrNotRegistered):
		metrics.RecordRedemption("not_registered")
		return respondNotRegistered(c)
	default:
		metrics.RecordRedemption("error")
		return fmt.Errorf("redeem reward %d for user %d: %w", rewardID, userID, err)
	}
}
