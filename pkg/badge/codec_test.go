package badge

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() *Payload {
	return &Payload{
		VisitorID:        "550e8400-e29b-41d4-a716-446655440000",
		RegistrationCode: "VIP001",
		Name:             "张伟",
		Email:            "zhangwei@example.com",
		Category:         "VIP",
		EventID:          1,
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec("eventhouse-badge-encryption-key3")

	encoded, err := codec.Encode(testPayload())
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", decoded.VisitorID)
	assert.Equal(t, "VIP001", decoded.RegistrationCode)
	assert.Equal(t, "zhangwei@example.com", decoded.Email)
	assert.Equal(t, uint(1), decoded.EventID)
	assert.NotZero(t, decoded.Timestamp)
	assert.Equal(t, Checksum(decoded.VisitorID, decoded.RegistrationCode, decoded.Email), decoded.Checksum)
}

func TestCodecRandomNonce(t *testing.T) {
	codec := NewCodec("eventhouse-badge-encryption-key3")

	first, err := codec.Encode(testPayload())
	require.NoError(t, err)
	second, err := codec.Encode(testPayload())
	require.NoError(t, err)

	// 相同载荷每次加密结果不同
	assert.NotEqual(t, first, second)
}

func TestCodecTamperDetection(t *testing.T) {
	codec := NewCodec("eventhouse-badge-encryption-key3")

	encoded, err := codec.Encode(testPayload())
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	// 翻转密文中间一个字节
	raw[len(raw)/2] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestCodecWrongKey(t *testing.T) {
	encoded, err := NewCodec("eventhouse-badge-encryption-key3").Encode(testPayload())
	require.NoError(t, err)

	_, err = NewCodec("another-key-entirely").Decode(encoded)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestCodecRejectsGarbage(t *testing.T) {
	codec := NewCodec("eventhouse-badge-encryption-key3")

	_, err := codec.Decode("not base64 at all!!!")
	assert.Error(t, err)

	_, err = codec.Decode(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestCodecKeyNormalization(t *testing.T) {
	// 短密钥补齐、长密钥截断，均不报错
	short := NewCodec("abc")
	long := NewCodec("0123456789012345678901234567890123456789")

	for _, codec := range []*Codec{short, long} {
		encoded, err := codec.Encode(testPayload())
		require.NoError(t, err)
		decoded, err := codec.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, "VIP001", decoded.RegistrationCode)
	}
}

func TestChecksumStable(t *testing.T) {
	a := Checksum("id-1", "VIP001", "a@example.com")
	b := Checksum("id-1", "VIP001", "a@example.com")
	assert.Equal(t, a, b)
	assert.Len(t, a, 8)

	// 任一身份字段变化都会改变校验和
	assert.NotEqual(t, a, Checksum("id-2", "VIP001", "a@example.com"))
	assert.NotEqual(t, a, Checksum("id-1", "VIP002", "a@example.com"))
	assert.NotEqual(t, a, Checksum("id-1", "VIP001", "b@example.com"))
}
