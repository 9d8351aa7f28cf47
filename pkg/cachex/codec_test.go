package cachex

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type balanceSnapshot struct {
	Wallet    string    `json:"wallet"`
	Balance   *big.Int  `json:"balance"`
	Proof     []byte    `json:"proof,omitempty"`
	TakenAt   time.Time `json:"taken_at"`
	Note      string    `json:"note,omitempty"`
	Positions []string  `json:"positions"`
}

func TestEncodeDeterministic(t *testing.T) {
	payload := map[string]any{
		"b": big.NewInt(42),
		"a": "first",
		"c": []any{1, 2, 3},
	}

	first, err := Encode(payload)
	require.NoError(t, err)

	second, err := Encode(payload)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRoundTripTypedStruct(t *testing.T) {
	takenAt := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	original := balanceSnapshot{
		Wallet:    "0xabc",
		Balance:   newBig(t, "123456789012345678901234567890"),
		Proof:     []byte{0xde, 0xad, 0xbe, 0xef},
		TakenAt:   takenAt,
		Positions: []string{"ETH", "USDC"},
	}

	data, err := Encode(original)
	require.NoError(t, err)

	var decoded balanceSnapshot
	require.NoError(t, Decode(data, &decoded))

	assert.Equal(t, original.Wallet, decoded.Wallet)
	assert.Zero(t, original.Balance.Cmp(decoded.Balance), "big integer must round-trip exactly")
	assert.Equal(t, original.Proof, decoded.Proof)
	assert.True(t, original.TakenAt.Equal(decoded.TakenAt))
	assert.Equal(t, original.Positions, decoded.Positions)
}

func TestRoundTripUntypedMap(t *testing.T) {
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	original := map[string]any{
		"amount": newBig(t, "987654321098765432109876543210"),
		"at":     when,
		"blob":   []byte("raw"),
		"name":   "reward",
	}

	data, err := Encode(original)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, Decode(data, &decoded))

	amount, ok := decoded["amount"].(*big.Int)
	require.True(t, ok, "expected *big.Int, got %T", decoded["amount"])
	assert.Zero(t, original["amount"].(*big.Int).Cmp(amount))

	at, ok := decoded["at"].(time.Time)
	require.True(t, ok)
	assert.True(t, when.Equal(at))

	blob, ok := decoded["blob"].([]byte)
	require.True(t, ok)
	assert.Equal(t, []byte("raw"), blob)

	assert.Equal(t, "reward", decoded["name"])
}

func TestDecodeCorruptedBinarySegment(t *testing.T) {
	// A $bytes envelope whose payload is not base64 means the stored entry
	// is corrupt. That must surface as an error, not as a cache miss.
	data := []byte(`{"blob":{"$bytes":"%%%not-base64%%%"}}`)

	var decoded map[string]any
	err := Decode(data, &decoded)
	require.Error(t, err)

	var typed struct {
		Blob []byte `json:"blob"`
	}
	err = Decode(data, &typed)
	require.Error(t, err)
}

func TestDecodeCorruptedBigInt(t *testing.T) {
	data := []byte(`{"amount":{"$big":"not-a-number"}}`)

	var decoded map[string]any
	require.Error(t, Decode(data, &decoded))
}

func TestEncodeOmitsEmptyTaggedFields(t *testing.T) {
	data, err := Encode(balanceSnapshot{
		Wallet:  "0xabc",
		Balance: big.NewInt(1),
		TakenAt: time.Unix(0, 0).UTC(),
	})
	require.NoError(t, err)

	assert.NotContains(t, string(data), `"note"`)
	assert.NotContains(t, string(data), `"proof"`)
}

func newBig(t *testing.T, s string) *big.Int {
	t.Helper()
	i, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return i
}
