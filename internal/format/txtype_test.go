package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseTxType(t *testing.T) {
	got, err := ParseTxType("recv_with_address")
	require.NoError(t, err)
	assert.Equal(t, TxTypeRecvWithAddress, got)

	got, err = ParseTxType("6")
	require.NoError(t, err)
	assert.Equal(t, TxTypeSendToSelf, got)

	_, err = ParseTxType("teleport")
	assert.Error(t, err)
	_, err = ParseTxType("99")
	assert.Error(t, err)
}

func TestTxType_YAML(t *testing.T) {
	var doc struct {
		A TxType `yaml:"a"`
		B TxType `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: generated\nb: 2\n"), &doc))
	assert.Equal(t, TxTypeGenerated, doc.A)
	assert.Equal(t, TxTypeSendToAddress, doc.B)

	out, err := yaml.Marshal(map[string]TxType{"t": TxTypeSendShadow})
	require.NoError(t, err)
	assert.Equal(t, "t: send_shadow\n", string(out))

	err = yaml.Unmarshal([]byte("a: [1]\n"), &doc)
	assert.Error(t, err)
}

func TestTxType_String(t *testing.T) {
	assert.Equal(t, "send_to_other", TxTypeSendToOther.String())
	assert.Equal(t, "tx_type(42)", TxType(42).String())
}
