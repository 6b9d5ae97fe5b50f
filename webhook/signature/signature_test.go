package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Run("success - boundary sizes", func(t *testing.T) {
		for _, size := range []int{MinSecretBytes, 32, MaxSecretBytes} {
			secret, err := GenerateSecret(size)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(secret.String(), SecretPrefix))
			assert.Len(t, secret.Bytes(), size)
		}
	})

	t.Run("error - out of range", func(t *testing.T) {
		_, err := GenerateSecret(MinSecretBytes - 1)
		require.Error(t, err)
		_, err = GenerateSecret(MaxSecretBytes + 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret size must be between")
	})

	t.Run("randomness - generates different secrets", func(t *testing.T) {
		secret1, err1 := GenerateSecret(32)
		secret2, err2 := GenerateSecret(32)
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NotEqual(t, secret1.String(), secret2.String())
	})
}

func TestParseSecret(t *testing.T) {
	t.Run("success - round trip", func(t *testing.T) {
		original, err := GenerateSecret(32)
		require.NoError(t, err)

		parsed, err := ParseSecret(original.String())
		require.NoError(t, err)
		assert.Equal(t, original.Bytes(), parsed.Bytes())
	})

	t.Run("error - missing prefix", func(t *testing.T) {
		_, err := ParseSecret("dGVzdHNlY3JldA==")
		require.ErrorIs(t, err, ErrInvalidSecret)
		assert.Contains(t, err.Error(), "must start with")
	})

	t.Run("error - invalid base64", func(t *testing.T) {
		_, err := ParseSecret(SecretPrefix + "not-valid-base64!!!")
		require.ErrorIs(t, err, ErrInvalidSecret)
		assert.Contains(t, err.Error(), "decoding base64")
	})

	t.Run("error - secret too small", func(t *testing.T) {
		_, err := ParseSecret(SecretPrefix + "dGVzdA==")
		require.ErrorIs(t, err, ErrInvalidSecret)
	})
}

// referenceSign is an independent rendition of the Standard Webhooks scheme.
func referenceSign(key []byte, id, ts string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", id, ts, body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSign(t *testing.T) {
	secret, err := GenerateSecret(32)
	require.NoError(t, err)

	msgID := "msg_2abc"
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	body := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)

	t.Run("success - matches reference digest", func(t *testing.T) {
		bodies := [][]byte{body, []byte("{}"), []byte(`{"unicode":"çã"}`), {}}
		for _, b := range bodies {
			sig, err := Sign(secret, msgID, timestamp, b)
			require.NoError(t, err)
			want := referenceSign(secret.Bytes(), msgID, "1704110400", b)
			assert.Equal(t, want, sig.Signature)
			assert.Equal(t, SignatureVersion, sig.Version)
		}
	})

	t.Run("success - deterministic", func(t *testing.T) {
		sig1, _ := Sign(secret, msgID, timestamp, body)
		sig2, _ := Sign(secret, msgID, timestamp, body)
		assert.Equal(t, sig1, sig2)
	})

	t.Run("error - message ID contains period", func(t *testing.T) {
		_, err := Sign(secret, "msg.with.periods", timestamp, body)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not contain '.'")
	})
}

func TestVerifyHeader(t *testing.T) {
	secret, err := GenerateSecret(32)
	require.NoError(t, err)

	msgID := "msg_2abc"
	ts := "1704110400"
	body := []byte(`{"type":"user.created"}`)
	good := referenceSign(secret.Bytes(), msgID, ts, body)

	t.Run("success - space delimited form", func(t *testing.T) {
		err := VerifyHeader(secret, msgID, ts, body, "v1,"+good)
		assert.NoError(t, err)
	})

	t.Run("success - comma delimited pairs", func(t *testing.T) {
		err := VerifyHeader(secret, msgID, ts, body, "v1=bm9wZQ==,v1="+good)
		assert.NoError(t, err)
	})

	t.Run("success - rotated secret alongside", func(t *testing.T) {
		err := VerifyHeader(secret, msgID, ts, body, "v1,bm9wZQ== v1,"+good)
		assert.NoError(t, err)
	})

	t.Run("success - unknown versions are skipped", func(t *testing.T) {
		err := VerifyHeader(secret, msgID, ts, body, "v0="+good+",v1="+good)
		assert.NoError(t, err)
	})

	t.Run("failure - only unsupported versions", func(t *testing.T) {
		err := VerifyHeader(secret, msgID, ts, body, "v0="+good)
		require.ErrorIs(t, err, ErrNoSupportedVersion)
		assert.Equal(t, "no supported signature version", err.Error())
	})

	t.Run("failure - mismatch", func(t *testing.T) {
		err := VerifyHeader(secret, msgID, "1704110401", body, "v1,"+good)
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("success - malformed sibling entries are skipped", func(t *testing.T) {
		for _, header := range []string{"v1=" + good + ",v2", "v1=" + good + ",v1=", "v2 v1," + good} {
			assert.NoError(t, VerifyHeader(secret, msgID, ts, body, header), header)
		}
	})

	t.Run("failure - tampered inputs", func(t *testing.T) {
		other, err := GenerateSecret(32)
		require.NoError(t, err)

		assert.ErrorIs(t, VerifyHeader(other, msgID, ts, body, "v1,"+good), ErrMismatch)
		assert.ErrorIs(t, VerifyHeader(secret, "msg_other", ts, body, "v1,"+good), ErrMismatch)
		assert.ErrorIs(t, VerifyHeader(secret, msgID, ts, []byte(`{"type":"user.deleted"}`), "v1,"+good), ErrMismatch)
	})

	t.Run("failure - malformed entry does not match", func(t *testing.T) {
		err := VerifyHeader(secret, msgID, ts, body, "v1,!!!")
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("error - empty header", func(t *testing.T) {
		err := VerifyHeader(secret, msgID, ts, body, " ")
		require.Error(t, err)
	})
}

func TestParseSignature(t *testing.T) {
	t.Run("success - comma form", func(t *testing.T) {
		sig, err := ParseSignature("v1,dGVzdHNpZ25hdHVyZQ==")
		require.NoError(t, err)
		assert.Equal(t, Signature{Version: "v1", Signature: "dGVzdHNpZ25hdHVyZQ=="}, sig)
	})

	t.Run("success - equals form keeps base64 padding", func(t *testing.T) {
		sig, err := ParseSignature("v1=dGVzdA==")
		require.NoError(t, err)
		assert.Equal(t, Signature{Version: "v1", Signature: "dGVzdA=="}, sig)
	})

	t.Run("error - invalid format", func(t *testing.T) {
		for _, in := range []string{"invalid", "", ",abc", "v1,"} {
			_, err := ParseSignature(in)
			assert.Error(t, err, in)
		}
	})
}

func TestParseSignatureHeader(t *testing.T) {
	t.Run("success - multiple space delimited", func(t *testing.T) {
		sigs, err := ParseSignatureHeader("  v1,dGVzdA==   v1a,YW5vdGhlcg==  ")
		require.NoError(t, err)
		require.Len(t, sigs, 2)
		assert.Equal(t, "v1", sigs[0].Version)
		assert.Equal(t, "v1a", sigs[1].Version)
	})

	t.Run("success - multiple comma delimited", func(t *testing.T) {
		sigs, err := ParseSignatureHeader("v0=YQ==,v1=dGVzdA==")
		require.NoError(t, err)
		require.Len(t, sigs, 2)
		assert.Equal(t, Signature{Version: "v0", Signature: "YQ=="}, sigs[0])
		assert.Equal(t, Signature{Version: "v1", Signature: "dGVzdA=="}, sigs[1])
	})

	t.Run("error - empty header", func(t *testing.T) {
		_, err := ParseSignatureHeader("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("success - unparseable entries are skipped", func(t *testing.T) {
		sigs, err := ParseSignatureHeader("v1=dGVzdA==,v2,v1=")
		require.NoError(t, err)
		assert.Equal(t, []Signature{{Version: "v1", Signature: "dGVzdA=="}}, sigs)
	})

	t.Run("error - no entry parses", func(t *testing.T) {
		_, err := ParseSignatureHeader("invalid v2,")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing signature 'invalid'")
	})
}

func TestBuildSignatureHeader(t *testing.T) {
	sig1 := Signature{Version: "v1", Signature: "dGVzdA=="}
	sig2 := Signature{Version: "v1", Signature: "YW5vdGhlcg=="}
	header := BuildSignatureHeader([]Signature{sig1, sig2})
	assert.Equal(t, "v1,dGVzdA== v1,YW5vdGhlcg==", header)

	parsed, err := ParseSignatureHeader(header)
	require.NoError(t, err)
	assert.Equal(t, []Signature{sig1, sig2}, parsed)
}
