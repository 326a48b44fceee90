package telegram

import (
	"errors"
	"strings"
)

const HelpText = `Commands:
/start - register
/help - show this help
/price <symbol> - current market data
/alert <symbol> <above|below> <target_price> - create a price alert
/alerts - list your alerts
/delalert <alert_id> - delete an alert
/history - recently fired alerts
/portfolio - your positions with live PnL
/buy <symbol> <quantity> <price> - record a buy
/sell <symbol> <quantity> - record a sell

Example:
/alert btc above 60000
`

var ErrInvalidArguments = errors.New("invalid arguments")

func ParseAlertArgs(args string) (symbol, condition, price string, err error) {
	parts := strings.Fields(args)
	if len(parts) != 3 {
		return "", "", "", ErrInvalidArguments
	}
	return parts[0], parts[1], parts[2], nil
}

func ParseSymbol(args string) (string, error) {
	symbol := strings.TrimSpace(args)
	if symbol == "" || len(strings.Fields(symbol)) != 1 {
		return "", ErrInvalidArguments
	}
	return symbol, nil
}

func ParseAlertID(args string) (string, error) {
	id := strings.TrimSpace(args)
	if id == "" {
		return "", ErrInvalidArguments
	}
	return id, nil
}

func ParseBuyArgs(args string) (symbol, quantity, price string, err error) {
	parts := strings.Fields(args)
	if len(parts) != 3 {
		return "", "", "", ErrInvalidArguments
	}
	return parts[0], parts[1], parts[2], nil
}

func ParseSellArgs(args string) (symbol, quantity string, err error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "", "", ErrInvalidArguments
	}
	return parts[0], parts[1], nil
}
