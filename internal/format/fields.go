package format

// FieldID names a field the backing store can answer for a row.
type FieldID string

// Transaction fields.
const (
	TxID             FieldID = "tx.id"
	TxToolTip        FieldID = "tx.tooltip"
	TxConfirmations  FieldID = "tx.confirmations"
	TxStatusIcon     FieldID = "tx.status_icon"
	TxDate           FieldID = "tx.date"
	TxDateDisplay    FieldID = "tx.date_display"
	TxTypeField      FieldID = "tx.type"
	TxTypeLabel      FieldID = "tx.type_label"
	TxAddressColor   FieldID = "tx.address_color"
	TxAddress        FieldID = "tx.address"
	TxAddressLabel   FieldID = "tx.address_label"
	TxAddressDisplay FieldID = "tx.address_display"
	TxNarration      FieldID = "tx.narration"
	TxAmountColor    FieldID = "tx.amount_color"
	TxAmount         FieldID = "tx.amount"
	TxAmountDisplay  FieldID = "tx.amount_display"
)

// Address fields.
const (
	AddrType         FieldID = "addr.type"
	AddrLabelValue   FieldID = "addr.label_value"
	AddrLabelDisplay FieldID = "addr.label"
	AddrAddress      FieldID = "addr.address"
	AddrPubKey       FieldID = "addr.pubkey"
)

// Message fields.
const (
	MsgKey          FieldID = "msg.key"
	MsgType         FieldID = "msg.type"
	MsgSentAt       FieldID = "msg.sent_at"
	MsgReceivedAt   FieldID = "msg.received_at"
	MsgLabelValue   FieldID = "msg.label_value"
	MsgLabelDisplay FieldID = "msg.label"
	MsgToAddress    FieldID = "msg.to_address"
	MsgFromAddress  FieldID = "msg.from_address"
	MsgRead         FieldID = "msg.read"
	MsgBody         FieldID = "msg.body"
)
