package format

import (
	"context"
	"fmt"

	"github.com/roach88/shadowfeed/internal/feed"
)

// RowReader answers field lookups against the current sort order of one
// backing collection.
type RowReader interface {
	FieldAt(ctx context.Context, row int, field FieldID) (feed.Value, error)
}

// Formatter projects one row of a backing collection into a FormattedRecord.
type Formatter interface {
	// Kind is the record kind this formatter serves.
	Kind() feed.Kind

	// KeyField is the field holding the record's stable identity.
	KeyField() FieldID

	// FilterField is the field whose value is matched against the
	// visibility set.
	FilterField() FieldID

	// Fields lists the output keys in emission order.
	Fields() []string

	// Format reads row from src and returns the formatted record.
	Format(ctx context.Context, src RowReader, row int) (feed.FormattedRecord, error)
}

// fieldSpec maps one output key to the store field feeding it.
type fieldSpec struct {
	key     string
	id      FieldID
	convert func(feed.Value) feed.Value
}

// tableFormatter is a Formatter driven by an ordered list of field specs.
type tableFormatter struct {
	kind   feed.Kind
	key    FieldID
	filter FieldID
	specs  []fieldSpec
}

func (f *tableFormatter) Kind() feed.Kind      { return f.kind }
func (f *tableFormatter) KeyField() FieldID    { return f.key }
func (f *tableFormatter) FilterField() FieldID { return f.filter }

func (f *tableFormatter) Fields() []string {
	keys := make([]string, len(f.specs))
	for i, s := range f.specs {
		keys[i] = s.key
	}
	return keys
}

func (f *tableFormatter) Format(ctx context.Context, src RowReader, row int) (feed.FormattedRecord, error) {
	rec := make(feed.FormattedRecord, 0, len(f.specs))
	for _, s := range f.specs {
		v, err := src.FieldAt(ctx, row, s.id)
		if err != nil {
			return nil, fmt.Errorf("%s row %d field %s: %w", f.kind, row, s.id, err)
		}
		if s.convert != nil {
			v = s.convert(v)
		}
		rec = append(rec, feed.F(s.key, v))
	}
	return rec, nil
}

func asString(v feed.Value) feed.Value { return feed.String(feed.AsString(v)) }
func asInt(v feed.Value) feed.Value    { return feed.Int(feed.AsInt(v)) }
func asBool(v feed.Value) feed.Value   { return feed.Bool(feed.AsBool(v)) }

func typeShort(v feed.Value) feed.Value {
	return feed.String(TypeShort(TxType(feed.AsInt(v))))
}

func escapeLabel(v feed.Value) feed.Value {
	return feed.String(EscapeLabel(feed.AsString(v)))
}

func escapeBody(v feed.Value) feed.Value {
	return feed.String(EscapeBody(feed.AsString(v)))
}

var transactionFormatter = &tableFormatter{
	kind:   feed.KindTransaction,
	key:    TxID,
	filter: TxTypeLabel,
	specs: []fieldSpec{
		{"id", TxID, asString},
		{"tt", TxToolTip, asString},
		{"c", TxConfirmations, asInt},
		{"s", TxStatusIcon, asString},
		{"d", TxDate, asInt},
		{"d_s", TxDateDisplay, asString},
		{"t", TxTypeField, typeShort},
		{"t_l", TxTypeLabel, asString},
		{"ad_c", TxAddressColor, asString},
		{"ad", TxAddress, asString},
		{"ad_l", TxAddressLabel, asString},
		{"ad_d", TxAddressDisplay, asString},
		{"n", TxNarration, asString},
		{"am_c", TxAmountColor, asString},
		{"am", TxAmount, asInt},
		{"am_d", TxAmountDisplay, asString},
	},
}

var addressFormatter = &tableFormatter{
	kind:   feed.KindAddress,
	key:    AddrAddress,
	filter: AddrType,
	specs: []fieldSpec{
		{"address", AddrAddress, asString},
		{"type", AddrType, asString},
		{"label_value", AddrLabelValue, asString},
		{"label", AddrLabelDisplay, asString},
		{"pubkey", AddrPubKey, asString},
	},
}

var messageFormatter = &tableFormatter{
	kind:   feed.KindMessage,
	key:    MsgKey,
	filter: MsgType,
	specs: []fieldSpec{
		{"id", MsgKey, asString},
		{"type", MsgType, asString},
		{"sent_date", MsgSentAt, asInt},
		{"received_date", MsgReceivedAt, asInt},
		{"label_value", MsgLabelValue, asString},
		{"label", MsgLabelDisplay, escapeLabel},
		{"to_address", MsgToAddress, asString},
		{"from_address", MsgFromAddress, asString},
		{"message", MsgBody, escapeBody},
		{"read", MsgRead, asBool},
	},
}

// For returns the formatter for kind.
func For(kind feed.Kind) (Formatter, error) {
	switch kind {
	case feed.KindTransaction:
		return transactionFormatter, nil
	case feed.KindAddress:
		return addressFormatter, nil
	case feed.KindMessage:
		return messageFormatter, nil
	default:
		return nil, fmt.Errorf("no formatter for %s", kind)
	}
}

// MustFor is For for kinds known to be valid.
func MustFor(kind feed.Kind) Formatter {
	f, err := For(kind)
	if err != nil {
		panic(err)
	}
	return f
}
