package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hcert-verifier/internal/models"
	"hcert-verifier/internal/testutil"
)

// newVerificationAPI starts a fake verification endpoint that answers every
// request with status and body, and records what it received.
func newVerificationAPI(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32, chan map[string]any) {
	t.Helper()

	var calls atomic.Int32
	received := make(chan map[string]any, 16)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			received <- req
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &calls, received
}

func TestVerifyCertificate_Valid(t *testing.T) {
	srv, calls, received := newVerificationAPI(t, http.StatusOK, `{"isValid":true}`)
	svc := NewCertificateVerificationService(srv.Client(), srv.URL, nil)

	result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, nil)

	require.True(t, result.Valid)
	assert.Equal(t, CheckCertFormat(testutil.SamplePayload), result)
	assert.Equal(t, int32(1), calls.Load())

	req := <-received
	assert.Equal(t, map[string]any{
		"kid":  testutil.SampleKid,
		"hash": testutil.SampleHash,
	}, req)
}

func TestVerifyCertificate_NotValid(t *testing.T) {
	bodies := []string{
		`{"isValid":false}`,
		`{}`,
		`{"isValid":"true"}`,
		`{"isValid":1}`,
		`{"valid":true}`,
		`[true]`,
		`null`,
		`true`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			srv, _, _ := newVerificationAPI(t, http.StatusOK, body)
			svc := NewCertificateVerificationService(srv.Client(), srv.URL, nil)

			result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, nil)
			assert.Equal(t, models.NewFailure(models.ErrAPINotValid), result)
		})
	}
}

func TestVerifyCertificate_FormatFailureSkipsNetwork(t *testing.T) {
	srv, calls, _ := newVerificationAPI(t, http.StatusOK, `{"isValid":true}`)
	svc := NewCertificateVerificationService(srv.Client(), srv.URL, nil)

	inputs := map[string]models.ErrorKind{
		"this is a string, not json": models.ErrInvalidJSON,
		`{"alg":"sha256"}`:           models.ErrMissingField,
		`{"alg":"sha256","kid":"k","iss":"i","iat":"a","exp":"e","hcert":"h","hashalg":"sha256","hash":"nope"}`: models.ErrInvalidHash,
	}
	for raw, kind := range inputs {
		result := svc.VerifyCertificate(context.Background(), raw, nil)
		assert.Equal(t, CheckCertFormat(raw), result)
		assert.Equal(t, kind, result.Reason)
	}

	assert.Zero(t, calls.Load())
}

func TestVerifyCertificate_BadStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv, _, _ := newVerificationAPI(t, status, `{"isValid":true}`)
			svc := NewCertificateVerificationService(srv.Client(), srv.URL, nil)

			result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, nil)
			assert.Equal(t, models.NewFailure(models.ErrAPIBadResponse), result)
		})
	}
}

func TestVerifyCertificate_AcceptsAny2xx(t *testing.T) {
	srv, _, _ := newVerificationAPI(t, http.StatusAccepted, `{"isValid":true}`)
	svc := NewCertificateVerificationService(srv.Client(), srv.URL, nil)

	result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, nil)
	assert.True(t, result.Valid)
}

func TestVerifyCertificate_BadJSON(t *testing.T) {
	for _, body := range []string{"", "not json", `{"isValid":true`} {
		t.Run(body, func(t *testing.T) {
			srv, _, _ := newVerificationAPI(t, http.StatusOK, body)
			svc := NewCertificateVerificationService(srv.Client(), srv.URL, nil)

			result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, nil)
			assert.Equal(t, models.NewFailure(models.ErrAPIBadJSON), result)
		})
	}
}

func TestVerifyCertificate_TransportFailure(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		svc := NewCertificateVerificationService(nil, url, nil)
		result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, nil)
		assert.Equal(t, models.NewFailure(models.ErrAPIBadResponse), result)
	})

	t.Run("invalid url", func(t *testing.T) {
		svc := NewCertificateVerificationService(nil, "://bad url", nil)
		result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, nil)
		assert.Equal(t, models.ErrAPIBadResponse, result.Reason)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(srv.Close)
		defer close(release)

		client := &http.Client{Timeout: 50 * time.Millisecond}
		svc := NewCertificateVerificationService(client, srv.URL, nil)
		result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, nil)
		assert.Equal(t, models.ErrAPIBadResponse, result.Reason)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv, calls, _ := newVerificationAPI(t, http.StatusOK, `{"isValid":true}`)
		svc := NewCertificateVerificationService(srv.Client(), srv.URL, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result := svc.VerifyCertificate(ctx, testutil.SamplePayload, nil)
		assert.Equal(t, models.ErrAPIBadResponse, result.Reason)
		assert.Zero(t, calls.Load())
	})
}

func TestVerifyCertificate_EndpointOverride(t *testing.T) {
	defaultSrv, defaultCalls, _ := newVerificationAPI(t, http.StatusOK, `{"isValid":false}`)
	overrideSrv, overrideCalls, _ := newVerificationAPI(t, http.StatusOK, `{"isValid":true}`)

	svc := NewCertificateVerificationService(nil, defaultSrv.URL, nil)

	result := svc.VerifyCertificate(context.Background(), testutil.SamplePayload, &models.VerifyOptions{EndpointURL: overrideSrv.URL})
	assert.True(t, result.Valid)
	assert.Equal(t, int32(1), overrideCalls.Load())
	assert.Zero(t, defaultCalls.Load())

	result = svc.VerifyCertificate(context.Background(), testutil.SamplePayload, &models.VerifyOptions{})
	assert.Equal(t, models.ErrAPINotValid, result.Reason)
	assert.Equal(t, int32(1), defaultCalls.Load())
}

func TestNewCertificateVerificationService_Defaults(t *testing.T) {
	svc := NewCertificateVerificationService(nil, "", nil).(*certificateVerificationService)

	assert.Equal(t, DefaultVerificationURL, svc.apiURL)
	assert.Same(t, http.DefaultClient, svc.httpClient)
	assert.NotNil(t, svc.logger)
}
