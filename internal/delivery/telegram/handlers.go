package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mkrutov/pricebot/internal/domain"
	"github.com/mkrutov/pricebot/internal/usecase"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const historyLimit = 10

type Handlers struct {
	userUC      *usecase.UserUsecase
	alerts      *usecase.AlertStore
	portfolioUC *usecase.PortfolioUsecase
	quotes      usecase.QuoteSource
	triggers    domain.TriggerLogRepository
	logger      *zap.Logger
}

func NewHandlers(userUC *usecase.UserUsecase, alerts *usecase.AlertStore, portfolioUC *usecase.PortfolioUsecase, quotes usecase.QuoteSource, triggers domain.TriggerLogRepository, logger *zap.Logger) *Handlers {
	return &Handlers{
		userUC:      userUC,
		alerts:      alerts,
		portfolioUC: portfolioUC,
		quotes:      quotes,
		triggers:    triggers,
		logger:      logger,
	}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	if update.Message.From == nil {
		return
	}
	if update.Message.IsCommand() {
		h.handleCommand(ctx, api, update)
		return
	}
}

func (h *Handlers) handleCommand(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	command := update.Message.Command()
	args := update.Message.CommandArguments()
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	username := update.Message.From.UserName

	h.logger.Info(
		"telegram command received",
		zap.Int64("chat_id", chatID),
		zap.Int64("telegram_user_id", userID),
		zap.String("command", command),
		zap.String("args", args),
	)

	switch command {
	case "start":
		_, err := h.userUC.StartOrGetUser(ctx, userID, username)
		if err != nil {
			h.logger.Warn("start command failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(api, chatID, "Failed to register. Please try again.")
			return
		}
		h.reply(api, chatID, "Welcome to pricebot.\n\n"+HelpText)
	case "help":
		h.reply(api, chatID, HelpText)
	case "price":
		symbol, err := ParseSymbol(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /price <symbol>")
			return
		}
		quote, err := h.quotes.Get(ctx, symbol)
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		h.reply(api, chatID, formatQuote(*quote))
	case "alert":
		symbol, condition, priceArg, err := ParseAlertArgs(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /alert <symbol> <above|below> <target_price>")
			return
		}
		target, err := decimal.NewFromString(priceArg)
		if err != nil {
			h.reply(api, chatID, "Invalid target price. Use a decimal like 60000 or 0.25.")
			return
		}
		alert, err := h.alerts.Create(ctx, userID, symbol, target, condition)
		if err != nil {
			h.logger.Warn("alert create failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		current := ""
		if alert.LastQuote != nil {
			current = fmt.Sprintf("\nCurrent price: $%s", alert.LastQuote.Price.StringFixed(2))
		}
		h.reply(api, chatID, fmt.Sprintf(
			"Alert set for %s %s $%s.%s",
			alert.Symbol, strings.ToLower(string(alert.Condition)), alert.TargetPrice.StringFixed(2), current,
		))
	case "alerts":
		alerts, err := h.alerts.ListForUser(ctx, userID)
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		if len(alerts) == 0 {
			h.reply(api, chatID, "No alerts yet. Use /alert to create one.")
			return
		}
		h.reply(api, chatID, formatAlertList(alerts))
	case "delalert":
		alertID, err := ParseAlertID(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /delalert <alert_id>")
			return
		}
		if err := h.alerts.Delete(ctx, userID, alertID); err != nil {
			h.logger.Warn("alert delete failed", zap.Int64("telegram_user_id", userID), zap.String("alert_id", alertID), zap.Error(err))
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		h.reply(api, chatID, "Alert deleted.")
	case "history":
		records, err := h.triggers.ListByUser(ctx, userID, historyLimit)
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		if len(records) == 0 {
			h.reply(api, chatID, "No fired alerts yet.")
			return
		}
		h.reply(api, chatID, formatHistory(records))
	case "portfolio":
		views, err := h.portfolioUC.List(ctx, userID)
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		if len(views) == 0 {
			h.reply(api, chatID, "Your portfolio is empty. Use /buy to add a position.")
			return
		}
		h.reply(api, chatID, formatPortfolio(views))
	case "buy":
		symbol, quantityArg, priceArg, err := ParseBuyArgs(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /buy <symbol> <quantity> <price>")
			return
		}
		quantity, qErr := decimal.NewFromString(quantityArg)
		price, pErr := decimal.NewFromString(priceArg)
		if qErr != nil || pErr != nil {
			h.reply(api, chatID, "Quantity and price must be decimals.")
			return
		}
		position, err := h.portfolioUC.Buy(ctx, userID, symbol, quantity, price)
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		h.reply(api, chatID, fmt.Sprintf(
			"Position updated: %s %s @ avg $%s",
			position.Symbol, position.Quantity.String(), position.AvgPrice.StringFixed(2),
		))
	case "sell":
		symbol, quantityArg, err := ParseSellArgs(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /sell <symbol> <quantity>")
			return
		}
		quantity, err := decimal.NewFromString(quantityArg)
		if err != nil {
			h.reply(api, chatID, "Quantity must be a decimal.")
			return
		}
		position, err := h.portfolioUC.Sell(ctx, userID, symbol, quantity)
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		if position.Quantity.IsZero() {
			h.reply(api, chatID, fmt.Sprintf("Position %s closed.", position.Symbol))
			return
		}
		h.reply(api, chatID, fmt.Sprintf("Position updated: %s %s remaining.", position.Symbol, position.Quantity.String()))
	default:
		h.reply(api, chatID, "Unknown command.\n\n"+HelpText)
	}
}

func (h *Handlers) errorMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrUserNotRegistered):
		return "Please /start to register first."
	case errors.Is(err, usecase.ErrInvalidPrice):
		return "Price must be a positive number."
	case errors.Is(err, usecase.ErrInvalidQuantity):
		return "Quantity must be a positive number."
	case errors.Is(err, usecase.ErrInvalidCondition):
		return "Condition must be 'above' or 'below'."
	case errors.Is(err, usecase.ErrDuplicateAlert):
		return "You already have an identical alert."
	case errors.Is(err, usecase.ErrAlertNotFound):
		return "Alert not found."
	case errors.Is(err, usecase.ErrPositionNotFound):
		return "You have no position in that symbol."
	case errors.Is(err, usecase.ErrInsufficientQuantity):
		return "You don't hold that much."
	case errors.Is(err, domain.ErrSymbolNotFound):
		return "Unknown symbol. Check the ticker and try again."
	case errors.Is(err, domain.ErrUpstream):
		return "Market data is unavailable right now. Please try again shortly."
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return "Something went wrong. Please try again."
}

func formatQuote(quote domain.Quote) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s: $%s\n", quote.Symbol, quote.Price.StringFixed(2))
	fmt.Fprintf(&builder, "24h change: %s%%\n", quote.Change24h.StringFixed(2))
	if !quote.High24h.IsZero() || !quote.Low24h.IsZero() {
		fmt.Fprintf(&builder, "24h range: $%s - $%s\n", quote.Low24h.StringFixed(2), quote.High24h.StringFixed(2))
	}
	if !quote.MarketCap.IsZero() {
		fmt.Fprintf(&builder, "Market cap: $%s\n", quote.MarketCap.StringFixed(0))
	}
	if !quote.Volume24h.IsZero() {
		fmt.Fprintf(&builder, "24h volume: $%s\n", quote.Volume24h.StringFixed(0))
	}
	return strings.TrimRight(builder.String(), "\n")
}

func formatAlertList(alerts []domain.Alert) string {
	var builder strings.Builder
	builder.WriteString("Your alerts:\n")
	for _, alert := range alerts {
		fmt.Fprintf(&builder, "%s %s $%s",
			alert.Symbol, strings.ToLower(string(alert.Condition)), alert.TargetPrice.StringFixed(2))
		if alert.LastQuote != nil {
			fmt.Fprintf(&builder, " (last seen $%s)", alert.LastQuote.Price.StringFixed(2))
		}
		fmt.Fprintf(&builder, "\n  id: %s\n", alert.ID)
	}
	return strings.TrimRight(builder.String(), "\n")
}

func formatHistory(records []domain.TriggeredAlert) string {
	var builder strings.Builder
	builder.WriteString("Recently fired alerts:\n")
	for _, record := range records {
		fmt.Fprintf(&builder, "%s %s $%s fired at $%s on %s\n",
			record.Symbol,
			strings.ToLower(string(record.Condition)),
			record.TargetPrice.StringFixed(2),
			record.FiredPrice.StringFixed(2),
			record.FiredAt.Format("2006-01-02 15:04"),
		)
	}
	return strings.TrimRight(builder.String(), "\n")
}

func formatPortfolio(views []usecase.PositionView) string {
	var builder strings.Builder
	builder.WriteString("Your portfolio:\n")
	total := decimal.Zero
	for _, view := range views {
		fmt.Fprintf(&builder, "%s: %s @ avg $%s", view.Symbol, view.Quantity.String(), view.AvgPrice.StringFixed(2))
		if view.CurrentPrice.IsZero() {
			builder.WriteString(" (no market data)\n")
			continue
		}
		fmt.Fprintf(&builder, "\n  now $%s, value $%s, PnL %s%% ($%s)\n",
			view.CurrentPrice.StringFixed(2),
			view.Value.StringFixed(2),
			view.PnLPercent.StringFixed(2),
			view.UnrealizedPnL.StringFixed(2),
		)
		total = total.Add(view.Value)
	}
	fmt.Fprintf(&builder, "Total value: $%s", total.StringFixed(2))
	return builder.String()
}

func (h *Handlers) reply(api *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Error(err))
	}
}
