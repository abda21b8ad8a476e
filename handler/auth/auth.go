package auth

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"leverage/handler/render"
	"leverage/handler/request"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fox-one/pkg/logger"
	"github.com/twitchtv/twirp"
)

const (
	// CallerHeader header carrying the caller address
	CallerHeader = "X-Caller-Address"
	// TimestampHeader header carrying the unix time the request was signed at
	TimestampHeader = "X-Caller-Timestamp"

	// MaxSkew how far the signed timestamp may drift from the server clock
	MaxSkew = 5 * time.Minute
)

var errInvalidSignature = errors.New("invalid signature")

// Message the text a caller signs for a request:
// method, path below the api root, unix timestamp and keccak256 of the body
func Message(method, path string, timestamp int64, body []byte) []byte {
	return []byte(fmt.Sprintf("%s %s %d %s", method, path, timestamp, crypto.Keccak256Hash(body).Hex()))
}

func textHash(msg []byte) []byte {
	return crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)))
}

// Sign signs msg as a personal message, the result goes into the
// Authorization header as a bearer token
func Sign(key *ecdsa.PrivateKey, msg []byte) (string, error) {
	sig, err := crypto.Sign(textHash(msg), key)
	if err != nil {
		return "", err
	}

	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Recover returns the address that signed msg
func Recover(msg []byte, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, errInvalidSignature
	}

	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(textHash(msg), sig)
	if err != nil {
		return common.Address{}, errInvalidSignature
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// HandleAuthentication verifies the signed caller headers and puts the
// caller address into the request context
func HandleAuthentication() func(http.Handler) http.Handler {
	return handleAuthentication(time.Now)
}

func handleAuthentication(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.FromContext(ctx)

			caller := r.Header.Get(CallerHeader)
			if caller == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !common.IsHexAddress(caller) {
				log.Debugln("invalid caller address:", caller)
				render.Error(w, twirp.InvalidArgumentError(CallerHeader, "invalid address"))
				return
			}

			timestamp, err := strconv.ParseInt(r.Header.Get(TimestampHeader), 10, 64)
			if err != nil {
				render.Error(w, twirp.NewError(twirp.Unauthenticated, "missing "+TimestampHeader))
				return
			}

			if skew := now().Sub(time.Unix(timestamp, 0)); skew > MaxSkew || skew < -MaxSkew {
				render.Error(w, twirp.NewError(twirp.Unauthenticated, "signature expired"))
				return
			}

			body, err := readBody(r)
			if err != nil {
				render.BadRequest(w, err)
				return
			}

			signer, err := Recover(Message(r.Method, r.URL.Path, timestamp, body), getBearerToken(r))
			if err != nil || signer != common.HexToAddress(caller) {
				log.WithError(err).Debugln("caller signature mismatch:", caller)
				render.Error(w, twirp.NewError(twirp.Unauthenticated, errInvalidSignature.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(request.NewContext(ctx).WithCaller(signer)))
		}

		return http.HandlerFunc(fn)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func getBearerToken(r *http.Request) string {
	s := r.Header.Get("Authorization")
	return strings.TrimPrefix(s, "Bearer ")
}

// Caller caller of r, renders unauthenticated when missing
func Caller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	caller, ok := request.NewContext(r.Context()).GetCaller()
	if !ok {
		render.Error(w, twirp.NewError(twirp.Unauthenticated, "missing "+CallerHeader))
	}

	return caller, ok
}
