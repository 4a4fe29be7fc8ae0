package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hcert-verifier/internal/models"
	"hcert-verifier/internal/testutil"
)

func TestCheckCertFormat_Valid(t *testing.T) {
	result := CheckCertFormat(testutil.SamplePayload)

	require.True(t, result.Valid)
	assert.Zero(t, result.Reason)
	assert.Equal(t, testutil.SampleKid, result.Payload.Kid())
	assert.Equal(t, testutil.SampleHash, result.Payload.Hash())

	var expected any
	require.NoError(t, json.Unmarshal([]byte(testutil.SampleCertificate), &expected))
	assert.Equal(t, expected, result.Certificate)

	cert, ok := result.Certificate.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Frith", cert["surname"])
}

func TestCheckCertFormat_InvalidJSON(t *testing.T) {
	inputs := []string{
		"this is a string, not json",
		"",
		"{",
		`{"alg": "sha256",}`,
		"   ",
	}
	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			result := CheckCertFormat(raw)
			assert.False(t, result.Valid)
			assert.Equal(t, models.ErrInvalidJSON, result.Reason)
		})
	}
}

func TestCheckCertFormat_MissingField(t *testing.T) {
	t.Run("missing iat", func(t *testing.T) {
		fields := testutil.SampleFields()
		delete(fields, "iat")
		raw := testutil.BuildPayload(fields)

		result := CheckCertFormat(raw)
		assert.False(t, result.Valid)
		assert.Equal(t, models.ErrMissingField, result.Reason)
	})

	t.Run("missing iat with unchanged hash", func(t *testing.T) {
		raw := strings.Replace(testutil.SamplePayload, `"iat":"2021-12-03T18:55:37.790",`, "", 1)
		require.NotEqual(t, testutil.SamplePayload, raw)

		result := CheckCertFormat(raw)
		assert.Equal(t, models.NewFailure(models.ErrMissingField), result)
	})

	for _, key := range models.RequiredFields {
		t.Run("each field "+key, func(t *testing.T) {
			fields := testutil.SampleFields()
			delete(fields, key)
			assert.Equal(t, models.ErrMissingField, CheckCertFormat(testutil.BuildPayload(fields)).Reason)

			fields = testutil.SampleFields()
			fields[key] = 42
			assert.Equal(t, models.ErrMissingField, CheckCertFormat(testutil.BuildPayload(fields)).Reason)

			fields[key] = nil
			assert.Equal(t, models.ErrMissingField, CheckCertFormat(testutil.BuildPayload(fields)).Reason)
		})
	}

	t.Run("not an object", func(t *testing.T) {
		for _, raw := range []string{`[]`, `["alg","kid"]`, `42`, `"text"`, `null`, `true`} {
			result := CheckCertFormat(raw)
			assert.Equal(t, models.ErrMissingField, result.Reason, raw)
		}
	})
}

func TestCheckCertFormat_InvalidHash(t *testing.T) {
	t.Run("altered hash", func(t *testing.T) {
		raw := strings.Replace(testutil.SamplePayload, testutil.SampleHash,
			"12345678ce4cd4af205aa90653126b836ea94e2d2619fe7fb53ea71af24c11fa", 1)

		result := CheckCertFormat(raw)
		assert.Equal(t, models.NewFailure(models.ErrInvalidHash), result)
	})

	t.Run("uppercase hash", func(t *testing.T) {
		raw := strings.Replace(testutil.SamplePayload, testutil.SampleHash, strings.ToUpper(testutil.SampleHash), 1)
		assert.Equal(t, models.ErrInvalidHash, CheckCertFormat(raw).Reason)
	})

	t.Run("absent hash", func(t *testing.T) {
		data, err := json.Marshal(testutil.SampleFields())
		require.NoError(t, err)
		assert.Equal(t, models.ErrInvalidHash, CheckCertFormat(string(data)).Reason)
	})

	t.Run("non-string hash", func(t *testing.T) {
		fields := testutil.SampleFields()
		fields["hash"] = 12345
		data, err := json.Marshal(fields)
		require.NoError(t, err)
		assert.Equal(t, models.ErrInvalidHash, CheckCertFormat(string(data)).Reason)
	})

	t.Run("modified field", func(t *testing.T) {
		raw := strings.Replace(testutil.SamplePayload, `"iss":"ZAF"`, `"iss":"ZAX"`, 1)
		assert.Equal(t, models.ErrInvalidHash, CheckCertFormat(raw).Reason)
	})
}

func TestCheckCertFormat_CertFormat(t *testing.T) {
	t.Run("not base64", func(t *testing.T) {
		raw := `{"alg":"sha256","kid":"9e9e5863-b900-4f2f-b572-c48ee4ddee75cwtG6ZL54We1MmE","iss":"ZAF","iat":"2021-12-03T18:55:37.790","exp":"3M","hcert":"this is not a Base64 JSON object","hashalg":"sha256","hash":"73dd5f1c5d6eb21a36d82f6061ef103598ce67ceab6f5386a2a770ba29c5aec6"}`

		result := CheckCertFormat(raw)
		assert.Equal(t, models.NewFailure(models.ErrCertFormat), result)
	})

	cases := map[string]string{
		"base64 of non-json": testutil.EncodeCertificate("plain text certificate"),
		"base64 of non-utf8": "//4=",
		"truncated base64":   testutil.SampleHcert[:len(testutil.SampleHcert)-3],
		"empty":              "",
	}
	for name, hcert := range cases {
		t.Run(name, func(t *testing.T) {
			fields := testutil.SampleFields()
			fields["hcert"] = hcert

			result := CheckCertFormat(testutil.BuildPayload(fields))
			assert.Equal(t, models.ErrCertFormat, result.Reason)
		})
	}
}

func TestCheckCertFormat_UnpaddedCertificate(t *testing.T) {
	fields := testutil.SampleFields()
	fields["hcert"] = "eyJhIjoxfQ"

	result := CheckCertFormat(testutil.BuildPayload(fields))
	require.True(t, result.Valid)
	assert.Equal(t, map[string]any{"a": float64(1)}, result.Certificate)

	fields["hcert"] = strings.TrimRight(testutil.SampleHcert, "=")
	result = CheckCertFormat(testutil.BuildPayload(fields))
	require.True(t, result.Valid)
	assert.Equal(t, "Frith", result.Certificate.(map[string]any)["surname"])
}

func TestCheckCertFormat_NullCertificate(t *testing.T) {
	fields := testutil.SampleFields()
	fields["hcert"] = testutil.EncodeCertificate("null")

	result := CheckCertFormat(testutil.BuildPayload(fields))
	require.True(t, result.Valid)
	assert.Nil(t, result.Certificate)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cert":null`)
}

func TestCheckCertFormat_DecodedCertificate(t *testing.T) {
	doc := `{"version":"2.0","firstName":"Test","immunizationEvents":[]}`
	fields := testutil.SampleFields()
	fields["hcert"] = testutil.EncodeCertificate(doc)

	result := CheckCertFormat(testutil.BuildPayload(fields))
	require.True(t, result.Valid)
	assert.Equal(t, map[string]any{
		"version":            "2.0",
		"firstName":          "Test",
		"immunizationEvents": []any{},
	}, result.Certificate)
}

func TestCheckCertFormat_ExtraFieldsKept(t *testing.T) {
	fields := testutil.SampleFields()
	fields["note"] = "kept"

	result := CheckCertFormat(testutil.BuildPayload(fields))
	require.True(t, result.Valid)
	assert.Equal(t, "kept", result.Payload["note"])
}

func TestCheckCertFormat_Idempotent(t *testing.T) {
	inputs := []string{
		testutil.SamplePayload,
		"this is a string, not json",
		`{"alg":"sha256"}`,
	}
	for _, raw := range inputs {
		assert.Equal(t, CheckCertFormat(raw), CheckCertFormat(raw))
	}
}

func TestIntegrityHash(t *testing.T) {
	var payload models.Payload
	require.NoError(t, json.Unmarshal([]byte(testutil.SamplePayload), &payload))

	hash, ok := IntegrityHash(payload)
	require.True(t, ok)
	assert.Equal(t, testutil.SampleHash, hash)

	delete(payload, "kid")
	_, ok = IntegrityHash(payload)
	assert.False(t, ok)
}
