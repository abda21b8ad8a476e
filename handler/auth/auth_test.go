package auth

import (
	"bytes"
	"crypto/ecdsa"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAuthentication(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.Nil(t, err)
	other, err := crypto.GenerateKey()
	require.Nil(t, err)

	caller := crypto.PubkeyToAddress(key.PublicKey)
	now := time.Unix(1700000000, 0)
	body := []byte(`{"new_owner":"0xb0b0000000000000000000000000000000000000"}`)

	var got common.Address
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = Caller(w, r)
		w.WriteHeader(http.StatusOK)
	})
	handler := handleAuthentication(func() time.Time { return now })(next)

	type request struct {
		caller    string
		timestamp int64
		signBody  []byte
		sendBody  []byte
		signer    *ecdsa.PrivateKey
	}

	data := map[string]struct {
		req  request
		code int
	}{
		"signed":          {request{caller.Hex(), now.Unix(), body, body, key}, http.StatusOK},
		"recent":          {request{caller.Hex(), now.Add(-time.Minute).Unix(), body, body, key}, http.StatusOK},
		"other signer":    {request{caller.Hex(), now.Unix(), body, body, other}, http.StatusUnauthorized},
		"tampered body":   {request{caller.Hex(), now.Unix(), body, []byte(`{}`), key}, http.StatusUnauthorized},
		"expired":         {request{caller.Hex(), now.Add(-2 * MaxSkew).Unix(), body, body, key}, http.StatusUnauthorized},
		"no signature":    {request{caller.Hex(), now.Unix(), body, body, nil}, http.StatusUnauthorized},
		"invalid address": {request{"0x12", now.Unix(), body, body, key}, http.StatusBadRequest},
	}

	for name, tc := range data {
		t.Run(name, func(t *testing.T) {
			got = common.Address{}

			req := httptest.NewRequest(http.MethodPost, "/positions/transfer", bytes.NewReader(tc.req.sendBody))
			req.Header.Set(CallerHeader, tc.req.caller)
			req.Header.Set(TimestampHeader, strconv.FormatInt(tc.req.timestamp, 10))
			if tc.req.signer != nil {
				token, err := Sign(tc.req.signer, Message(req.Method, req.URL.Path, tc.req.timestamp, tc.req.signBody))
				require.Nil(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)

			if tc.code == http.StatusOK {
				assert.Equal(t, caller, got)
			}
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		got = common.HexToAddress("0x01")

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, common.Address{}, got)
	})
}

func TestRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.Nil(t, err)

	msg := Message(http.MethodGet, "/debt", 1700000000, nil)
	token, err := Sign(key, msg)
	require.Nil(t, err)

	signer, err := Recover(msg, token)
	require.Nil(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer)

	_, err = Recover(msg, "0x1234")
	assert.ErrorIs(t, err, errInvalidSignature)
}
