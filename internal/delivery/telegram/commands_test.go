package telegram

import "testing"

func TestParseAlertArgs(t *testing.T) {
	symbol, condition, price, err := ParseAlertArgs("btc above 60000")
	if err != nil {
		t.Fatalf("ParseAlertArgs failed: %v", err)
	}
	if symbol != "btc" || condition != "above" || price != "60000" {
		t.Errorf("got (%q, %q, %q)", symbol, condition, price)
	}

	for _, args := range []string{"", "btc", "btc above", "btc above 60000 extra"} {
		if _, _, _, err := ParseAlertArgs(args); err == nil {
			t.Errorf("ParseAlertArgs(%q) should fail", args)
		}
	}
}

func TestParseSymbol(t *testing.T) {
	if symbol, err := ParseSymbol("  eth "); err != nil || symbol != "eth" {
		t.Errorf("ParseSymbol = (%q, %v), want (eth, nil)", symbol, err)
	}
	for _, args := range []string{"", "eth btc"} {
		if _, err := ParseSymbol(args); err == nil {
			t.Errorf("ParseSymbol(%q) should fail", args)
		}
	}
}

func TestParseBuySellArgs(t *testing.T) {
	symbol, quantity, price, err := ParseBuyArgs("btc 0.5 60000")
	if err != nil || symbol != "btc" || quantity != "0.5" || price != "60000" {
		t.Errorf("ParseBuyArgs = (%q, %q, %q, %v)", symbol, quantity, price, err)
	}
	if _, _, _, err := ParseBuyArgs("btc 0.5"); err == nil {
		t.Error("ParseBuyArgs with two fields should fail")
	}

	symbol, quantity, err = ParseSellArgs("btc 0.5")
	if err != nil || symbol != "btc" || quantity != "0.5" {
		t.Errorf("ParseSellArgs = (%q, %q, %v)", symbol, quantity, err)
	}
	if _, _, err := ParseSellArgs("btc"); err == nil {
		t.Error("ParseSellArgs with one field should fail")
	}
}
