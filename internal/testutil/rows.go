package testutil

import (
	"fmt"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/format"
)

// Row is one backing row: the store's answer for each field.
type Row map[format.FieldID]feed.Value

// TransactionRow builds a fully populated transaction row. The type label
// follows t, so it is what the visibility filter sees.
func TransactionRow(id string, t format.TxType, amount int64) Row {
	return Row{
		format.TxID:             feed.String(id),
		format.TxToolTip:        feed.String("6 confirmations"),
		format.TxConfirmations:  feed.Int(6),
		format.TxStatusIcon:     feed.String("confirmed"),
		format.TxDate:           feed.Int(1700000000),
		format.TxDateDisplay:    feed.String("2023-11-14 22:13"),
		format.TxTypeField:      feed.Int(int64(t)),
		format.TxTypeLabel:      feed.String(format.TypeLabel(t)),
		format.TxAddressColor:   feed.String("normal"),
		format.TxAddress:        feed.String("S" + id),
		format.TxAddressLabel:   feed.String(""),
		format.TxAddressDisplay: feed.String("S" + id),
		format.TxNarration:      feed.String(""),
		format.TxAmountColor:    feed.String(amountColor(amount)),
		format.TxAmount:         feed.Int(amount),
		format.TxAmountDisplay:  feed.String(fmt.Sprintf("%d", amount)),
	}
}

// AddressRow builds an address row of the given type ("send" or "receive").
func AddressRow(address, typ, label string) Row {
	return Row{
		format.AddrAddress:      feed.String(address),
		format.AddrType:         feed.String(typ),
		format.AddrLabelValue:   feed.String(label),
		format.AddrLabelDisplay: feed.String(label),
		format.AddrPubKey:       feed.String("pk-" + address),
	}
}

// MessageRow builds an unread message row.
func MessageRow(key, typ, body string) Row {
	return Row{
		format.MsgKey:          feed.String(key),
		format.MsgType:         feed.String(typ),
		format.MsgSentAt:       feed.Int(1700000000),
		format.MsgReceivedAt:   feed.Int(1700000060),
		format.MsgLabelValue:   feed.String(""),
		format.MsgLabelDisplay: feed.String(""),
		format.MsgToAddress:    feed.String("Sto"),
		format.MsgFromAddress:  feed.String("Sfrom"),
		format.MsgRead:         feed.Bool(false),
		format.MsgBody:         feed.String(body),
	}
}

// TransactionRows builds n received transactions with ids tx-0 .. tx-(n-1).
func TransactionRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = TransactionRow(fmt.Sprintf("tx-%d", i), format.TxTypeRecvWithAddress, int64(i+1)*100000000)
	}
	return rows
}

func amountColor(amount int64) string {
	if amount < 0 {
		return "negative"
	}
	return "positive"
}
