package rest_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"leverage/core"
	"leverage/handler/auth"
	"leverage/handler/rest"
	"leverage/internal/world"
	"leverage/pkg/leverage"
	"leverage/service/engine"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fox-one/pkg/store/db"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = map[common.Address]*ecdsa.PrivateKey{}

func account(hexKey string) common.Address {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		panic(err)
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)
	keys[addr] = key
	return addr
}

var (
	usdc         = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice        = account("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	bob          = account("8f2a55949038a9610f50fb23b5883af3b4ecb3c3bb792cbcefbd1542c692be63")
	mallory      = account("c87509a1c067bbde78beb793e6fa76530b6382a4c0241e5e4a9ec0a0f44dc0d3")
	configurator = account("0dbbe8e4ae425a6d2687f1a7e3ba17bc98c673636790f1b8ad91193c05875ef1")
	engineAddr   = common.HexToAddress("0xe000000000000000000000000000000000000000")
	poolAddr     = common.HexToAddress("0x9000000000000000000000000000000000000000")
)

type operationStore struct {
	ops []*core.Operation
}

func (s *operationStore) Create(ctx context.Context, tx *db.DB, operation *core.Operation) error {
	s.ops = append(s.ops, operation)
	return nil
}

func (s *operationStore) ListByOwner(ctx context.Context, owner string, limit int) ([]*core.Operation, error) {
	var ops []*core.Operation
	for _, op := range s.ops {
		if op.Owner == owner && len(ops) < limit {
			ops = append(ops, op)
		}
	}

	return ops, nil
}

func (s *operationStore) Last(ctx context.Context) (*core.Operation, error) {
	if len(s.ops) == 0 {
		return &core.Operation{}, nil
	}

	return s.ops[len(s.ops)-1], nil
}

type recorder struct {
	store *operationStore
}

func (r recorder) Record(ctx context.Context, change *core.StateChange) error {
	return r.store.Create(ctx, nil, change.Operation)
}

type response struct {
	Data json.RawMessage `json:"data"`
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
}

type client struct {
	t       *testing.T
	handler http.Handler
}

// do sends the request signed by caller, unsigned when caller is nil
func (c client) do(method, path string, caller *common.Address, body interface{}) (int, response) {
	if caller == nil {
		return c.send(method, path, common.Address{}, nil, body)
	}

	return c.send(method, path, *caller, keys[*caller], body)
}

// send claims to be caller and signs with key
func (c client) send(method, path string, caller common.Address, key *ecdsa.PrivateKey, body interface{}) (int, response) {
	var buf bytes.Buffer
	if body != nil {
		require.Nil(c.t, json.NewEncoder(&buf).Encode(body))
	}
	data := buf.Bytes()

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	if key != nil {
		timestamp := time.Now().Unix()
		token, err := auth.Sign(key, auth.Message(method, req.URL.Path, timestamp, data))
		require.Nil(c.t, err)

		req.Header.Set(auth.CallerHeader, caller.Hex())
		req.Header.Set(auth.TimestampHeader, strconv.FormatInt(timestamp, 10))
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var resp response
	require.Nil(c.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func newClient(t *testing.T) (client, *operationStore) {
	ctx := context.Background()
	ops := &operationStore{}

	w := world.New(world.Options{
		Engine: engine.Config{
			Address:      engineAddr,
			Configurator: configurator,
			MinAmount:    uint256.NewInt(100),
			MaxAmount:    uint256.NewInt(1000000),
			MaxLeverage:  1000,
		},
		Underlying:          usdc,
		UnderlyingThreshold: 9000,
		PoolAddress:         poolAddr,
		DebtLimit:           uint256.NewInt(1000000),
		LiquidationDiscount: 9500,
		Recorder:            recorder{store: ops},
	})

	w.Static.SetPrice(usdc, uint256.NewInt(100000000), 0)
	require.Nil(t, w.Mint(usdc, poolAddr, uint256.NewInt(1000000)))
	require.Nil(t, w.Fund(ctx, usdc, alice, uint256.NewInt(10000)))

	cfg := &core.Config{}
	cfg.Engine.Underlying = core.Asset{Address: usdc.Hex(), Symbol: "USDC"}

	r := auth.HandleAuthentication()(rest.Handle(cfg, w.Engine, ops))
	return client{t: t, handler: r}, ops
}

func TestPositionLifecycle(t *testing.T) {
	c, _ := newClient(t)
	owner := "/positions/" + alice.Hex()

	code, resp := c.do(http.MethodGet, owner, nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, core.ErrNotFound.Code(), resp.Code)

	code, _ = c.do(http.MethodPost, "/positions", nil, map[string]interface{}{"amount": "1000", "leverage": 500})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp = c.do(http.MethodPost, "/positions", &alice, map[string]interface{}{"amount": "1000", "leverage": 500})
	require.Equal(t, http.StatusOK, code, resp.Msg)

	var position struct {
		Owner          string `json:"owner"`
		BorrowedAmount string `json:"borrowed_amount"`
	}
	require.Nil(t, json.Unmarshal(resp.Data, &position))
	assert.Equal(t, alice.Hex(), position.Owner)
	assert.Equal(t, "5000", position.BorrowedAmount)

	code, resp = c.do(http.MethodGet, owner+"/health", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var health struct {
		Liquidatable bool `json:"liquidatable"`
	}
	require.Nil(t, json.Unmarshal(resp.Data, &health))
	assert.False(t, health.Liquidatable)

	code, resp = c.do(http.MethodPost, owner+"/close", &bob, map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, core.ErrAccessDenied.Code(), resp.Code)

	code, resp = c.do(http.MethodPost, owner+"/liquidate", &bob, map[string]interface{}{})
	assert.Equal(t, http.StatusPreconditionFailed, code)
	assert.Equal(t, core.ErrNotLiquidatable.Code(), resp.Code)

	code, resp = c.do(http.MethodPost, owner+"/close", &alice, map[string]interface{}{})
	require.Equal(t, http.StatusOK, code, resp.Msg)

	var settlement struct {
		Kind  string `json:"kind"`
		Owner string `json:"owner"`
	}
	require.Nil(t, json.Unmarshal(resp.Data, &settlement))
	assert.Equal(t, "close", settlement.Kind)
	assert.Equal(t, alice.Hex(), settlement.Owner)

	code, resp = c.do(http.MethodGet, owner+"/operations?limit=10", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var ops []*core.Operation
	require.Nil(t, json.Unmarshal(resp.Data, &ops))
	// approve, open, close; reverted calls leave no record
	require.Len(t, ops, 3)
	assert.Equal(t, core.OperationApprove, ops[0].Kind)
	assert.Equal(t, core.OperationOpen, ops[1].Kind)
	assert.Equal(t, core.OperationClose, ops[2].Kind)
}

func TestBadRequests(t *testing.T) {
	c, _ := newClient(t)

	code, _ := c.do(http.MethodGet, "/positions/not-an-address", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodPost, "/approvals", &alice, map[string]interface{}{"asset": "0x12", "amount": "1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := c.do(http.MethodPost, "/positions/"+alice.Hex()+"/multicall", &alice, map[string]interface{}{
		"calls": []map[string]string{{"target": bob.Hex(), "data": "zz"}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, core.ErrInvalidCall.Code(), resp.Code)

	code, resp = c.do(http.MethodGet, "/nothing", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not found", resp.Msg)
}

func TestAssetsAndDebt(t *testing.T) {
	c, _ := newClient(t)
	weth := common.HexToAddress("0x1000000000000000000000000000000000000002")

	code, resp := c.do(http.MethodPost, "/assets", &alice, map[string]interface{}{"asset": weth.Hex(), "threshold": 8500})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, core.ErrAccessDenied.Code(), resp.Code)

	caller := configurator
	code, resp = c.do(http.MethodPost, "/assets", &caller, map[string]interface{}{"asset": weth.Hex(), "threshold": 8500})
	require.Equal(t, http.StatusOK, code, resp.Msg)

	code, resp = c.do(http.MethodPut, "/assets/"+weth.Hex(), &caller, map[string]interface{}{"threshold": uint16(leverage.PercentageFactor) + 1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, core.ErrInvalidThreshold.Code(), resp.Code)

	code, resp = c.do(http.MethodGet, "/assets", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var assets []struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
		Index   uint8  `json:"index"`
	}
	require.Nil(t, json.Unmarshal(resp.Data, &assets))
	require.Len(t, assets, 2)
	assert.Equal(t, "USDC", assets[0].Symbol)
	assert.Equal(t, weth.Hex(), assets[1].Address)
	assert.EqualValues(t, 1, assets[1].Index)

	code, resp = c.do(http.MethodGet, "/debt", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var debt struct {
		Current string `json:"current"`
		Limit   string `json:"limit"`
	}
	require.Nil(t, json.Unmarshal(resp.Data, &debt))
	assert.Equal(t, "0", debt.Current)
	assert.Equal(t, "1000000", debt.Limit)
}

func TestCollateralAndTransfer(t *testing.T) {
	c, _ := newClient(t)
	owner := "/positions/" + alice.Hex()

	code, resp := c.do(http.MethodPost, "/positions", &alice, map[string]interface{}{"amount": "1000", "leverage": 200})
	require.Equal(t, http.StatusOK, code, resp.Msg)

	code, resp = c.do(http.MethodPost, owner+"/collateral", &alice, map[string]interface{}{"asset": usdc.Hex(), "amount": "100"})
	require.Equal(t, http.StatusOK, code, resp.Msg)

	code, resp = c.do(http.MethodPost, owner+"/transfer", &bob, map[string]interface{}{"new_owner": bob.Hex()})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = c.do(http.MethodPost, owner+"/transfer", &alice, map[string]interface{}{"new_owner": bob.Hex()})
	require.Equal(t, http.StatusOK, code, resp.Msg)

	var position struct {
		Owner          string `json:"owner"`
		BorrowedAmount string `json:"borrowed_amount"`
	}
	require.Nil(t, json.Unmarshal(resp.Data, &position))
	assert.Equal(t, bob.Hex(), position.Owner)
	assert.Equal(t, "2000", position.BorrowedAmount)

	code, _ = c.do(http.MethodGet, owner, nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestForgedCaller(t *testing.T) {
	c, _ := newClient(t)
	owner := "/positions/" + alice.Hex()

	code, resp := c.do(http.MethodPost, "/positions", &alice, map[string]interface{}{"amount": "1000", "leverage": 200})
	require.Equal(t, http.StatusOK, code, resp.Msg)

	transfer := map[string]interface{}{"new_owner": mallory.Hex()}

	code, _ = c.send(http.MethodPost, owner+"/transfer", alice, keys[mallory], transfer)
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodPost, owner+"/transfer", bytes.NewReader([]byte(`{"new_owner":"`+mallory.Hex()+`"}`)))
	req.Header.Set(auth.CallerHeader, alice.Hex())
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	code, _ = c.do(http.MethodGet, "/positions/"+mallory.Hex(), nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = c.do(http.MethodGet, owner, nil, nil)
	require.Equal(t, http.StatusOK, code, resp.Msg)

	var position struct {
		Owner string `json:"owner"`
	}
	require.Nil(t, json.Unmarshal(resp.Data, &position))
	assert.Equal(t, alice.Hex(), position.Owner)
}
