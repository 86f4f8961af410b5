package store

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Coin is the number of base units in one coin.
const Coin = 100_000_000

// RecommendedConfirmations is the depth at which a transaction shows as confirmed.
const RecommendedConfirmations = 10

const dateLayout = "2006-01-02 15:04"

// Display tokens. The display layer maps them to colours and icons.
const (
	colorNormal      = "normal"
	colorBare        = "bare"
	colorNegative    = "negative"
	colorUnconfirmed = "unconfirmed"
	noLabel          = "(no label)"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders base units as a grouped decimal coin amount,
// e.g. 123456789012 -> "1,234.56789012".
func FormatAmount(amount int64) string {
	sign := ""
	u := uint64(amount)
	if amount < 0 {
		sign = "-"
		u = uint64(-(amount + 1)) + 1
	}
	return sign + printer.Sprintf("%d", u/Coin) + fmt.Sprintf(".%08d", u%Coin)
}

// FormatDate renders unix seconds in UTC. Zero renders empty.
func FormatDate(unix int64) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format(dateLayout)
}

// StatusText describes the confirmation depth.
func StatusText(confirmations int64) string {
	switch {
	case confirmations <= 0:
		return "Unconfirmed"
	case confirmations < RecommendedConfirmations:
		return printer.Sprintf("Confirming (%d of %d confirmations)", confirmations, RecommendedConfirmations)
	default:
		return printer.Sprintf("Confirmed (%d confirmations)", confirmations)
	}
}

func statusIcon(confirmations int64) string {
	switch {
	case confirmations <= 0:
		return "tx_unconfirmed"
	case confirmations < RecommendedConfirmations:
		return fmt.Sprintf("tx_clock%d", (confirmations*5+RecommendedConfirmations-1)/RecommendedConfirmations)
	default:
		return "tx_confirmed"
	}
}

func amountColor(amount, confirmations int64) string {
	switch {
	case confirmations <= 0:
		return colorUnconfirmed
	case amount < 0:
		return colorNegative
	default:
		return colorNormal
	}
}

func addressColor(label string) string {
	if label == "" {
		return colorBare
	}
	return colorNormal
}

func addressDisplay(label, address string) string {
	switch {
	case address == "":
		return "(n/a)"
	case label == "":
		return address
	default:
		return label + " (" + address + ")"
	}
}

func labelDisplay(label string) string {
	if label == "" {
		return noLabel
	}
	return label
}
