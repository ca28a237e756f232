package message_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
)

func TestJSONObjectEnvelope(t *testing.T) {
	addr := common.HexToAddress(escrow.EscrowContractPolygon)
	req := message.NewRequest(7, &message.Initialized{Address: addr, SessionID: "s-1"})

	b, err := json.Marshal(&message.JSONObject{Message: req})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	require.JSONEq(t, `"Request"`, string(raw["type"]))

	var obj message.JSONObject
	require.NoError(t, json.Unmarshal(b, &obj))
	got, ok := obj.Message.(*message.Request)
	require.True(t, ok)
	require.Equal(t, uint64(7), got.ID)
	require.Equal(t, &message.Initialized{Address: addr, SessionID: "s-1"}, got.Message.Message)
}

func TestJSONObjectUnknownType(t *testing.T) {
	var obj message.JSONObject
	err := json.Unmarshal([]byte(`{"type":"Bogus","message":{}}`), &obj)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Bogus")
}

func TestJSONObjectEmptyMessage(t *testing.T) {
	var obj message.JSONObject
	require.NoError(t, json.Unmarshal([]byte(`{"type":"GetEscrowConfig"}`), &obj))
	require.IsType(t, &message.GetEscrowConfig{}, obj.Message)
}

func TestAmount(t *testing.T) {
	b, err := json.Marshal(message.MakeAmount(big.NewInt(2500)))
	require.NoError(t, err)
	require.JSONEq(t, `"2500"`, string(b))

	var got message.Amount
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, int64(2500), got.Int64())

	require.NoError(t, json.Unmarshal([]byte(`16250`), &got))
	require.Equal(t, int64(16250), got.Int64())

	for _, invalid := range []string{`"12ab"`, `"-1"`, `1.5`} {
		require.Error(t, json.Unmarshal([]byte(invalid), &got), invalid)
	}

	b, err = json.Marshal(message.MakeAmount(nil))
	require.NoError(t, err)
	require.JSONEq(t, `"0"`, string(b))
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "boom", (&message.Error{Err: "boom"}).Error())
	require.Equal(t, "rejected: boom", (&message.Error{Err: "boom", Kind: "rejected"}).Error())
}
