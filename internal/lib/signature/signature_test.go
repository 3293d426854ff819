package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/resume-builder/internal/lib/formdata"
)

func testPayload() formdata.Values {
	return formdata.Values{
		{Key: "resource_name", Value: "subscription"},
		{Key: "resource_action", Value: "created"},
		{Key: "subscription_id", Value: "S1"},
		{Key: "email", Value: "buyer@example.com"},
	}
}

func TestVerify(t *testing.T) {
	const secret = "shh"
	payload := testPayload()
	good := Compute([]byte(secret), payload)

	tampered := testPayload()
	tampered[2].Value = "S2"

	tests := []struct {
		name    string
		secret  string
		values  formdata.Values
		claimed string
		want    Outcome
		wantErr error
	}{
		{name: "корректная подпись", secret: secret, values: payload, claimed: good, want: Verified},
		{name: "подпись в верхнем регистре", secret: secret, values: payload, claimed: "  " + upper(good) + " ", want: Verified},
		{name: "изменённый payload", secret: secret, values: tampered, claimed: good, want: Rejected, wantErr: ErrMismatch},
		{name: "чужой секрет", secret: "other", values: payload, claimed: good, want: Rejected, wantErr: ErrMismatch},
		{name: "нет секрета", secret: "", values: tampered, claimed: good, want: SkippedNoSecret},
		{name: "нет подписи", secret: secret, values: tampered, claimed: "", want: SkippedNoSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewVerifier(tt.secret).Verify(tt.values, tt.claimed)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSign_DependsOnFieldOrder(t *testing.T) {
	v := NewVerifier("secret")
	payload := testPayload()
	reordered := formdata.Values{payload[1], payload[0], payload[2], payload[3]}

	assert.NotEqual(t, v.Sign(payload), v.Sign(reordered))
	assert.Len(t, v.Sign(payload), 64)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
