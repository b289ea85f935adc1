package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/solver-vault/internal/access"
	"github.com/goatnetwork/solver-vault/internal/db"
	"github.com/goatnetwork/solver-vault/internal/ledger"
	"github.com/goatnetwork/solver-vault/internal/types"
	"github.com/goatnetwork/solver-vault/internal/vault"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-api-secret"

var (
	custody  = common.HexToAddress("0x000000000000000000000000000000000000c0de")
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	balancer = common.HexToAddress("0x0000000000000000000000000000000000000003")
	pauser   = common.HexToAddress("0x0000000000000000000000000000000000000005")
	user     = common.HexToAddress("0x0000000000000000000000000000000000000006")
	receiver = common.HexToAddress("0x0000000000000000000000000000000000000007")
	solver   = common.HexToAddress("0x0000000000000000000000000000000000000008")
	usdc     = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	svt      = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	symmio   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	faucet   = common.HexToAddress("0x00000000000000000000000000000000000000fa")
)

type apiResponse struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	RequestID string          `json:"request_id"`
}

type apiFixture struct {
	t          *testing.T
	router     *gin.Engine
	vault      *vault.Vault
	collateral *ledger.MemoryToken
	vaultToken *ledger.MemoryToken
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	backend := ledger.NewMemoryBackend(custody)
	collateral := ledger.NewMemoryToken(usdc, 6)
	collateral.GrantMinter(faucet)
	vaultToken := backend.AddToken(ledger.NewMemoryToken(svt, 18))
	vaultToken.GrantMinter(custody)
	backend.AddSettlement(ledger.NewMemorySettlement(symmio, collateral))

	dm, err := db.OpenDatabaseManager(db.MEMORY_DSN)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	store := db.NewVaultStore(dm)

	v, err := vault.New(ctx, backend, store, nil, vault.InitParams{
		Owner:               owner,
		Symmio:              symmio,
		VaultToken:          svt,
		Solver:              solver,
		DepositLimit:        big.NewInt(1_000_000_000),
		MinimumPaybackRatio: new(big.Int).Div(types.RatioOne, big.NewInt(2)),
		Grants: []access.Grant{
			{Role: access.RoleBalancer, Account: balancer},
			{Role: access.RolePauser, Account: pauser},
			{Role: access.RoleUnpauser, Account: pauser},
		},
	})
	require.NoError(t, err)

	server := NewHTTPServer(v, store, testSecret)
	return &apiFixture{t: t, router: server.Router(), vault: v, collateral: collateral, vaultToken: vaultToken}
}

func (f *apiFixture) token(caller common.Address) string {
	token, err := NewAPIToken(testSecret, caller, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(f.t, err)
	return token
}

func (f *apiFixture) do(method, path string, body interface{}, caller *common.Address) (int, apiResponse) {
	f.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req.Header.Set("Authorization", "Bearer "+f.token(*caller))
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var resp apiResponse
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (f *apiFixture) fund(account common.Address, amount int64) {
	require.NoError(f.t, f.collateral.MintAs(faucet, account, big.NewInt(amount)))
	f.collateral.Approve(account, custody, big.NewInt(amount))
}

func TestHealthAndVaultView(t *testing.T) {
	f := newAPIFixture(t)

	code, resp := f.do(http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)

	code, resp = f.do(http.MethodGet, "/api/v1/vault", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var view VaultView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, usdc.Hex(), view.Collateral)
	assert.Equal(t, "1000.000000", view.DepositLimit)
	assert.Equal(t, "0.5", view.MinimumPaybackRatio)
	assert.Equal(t, "accept", view.DepositRelease)
	assert.Equal(t, "0.000000", view.AvailableBalance)
	assert.False(t, view.Paused)

	code, resp = f.do(http.MethodGet, "/api/v1/roles/balancer/"+balancer.Hex(), nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"has_role":true`)

	code, _ = f.do(http.MethodGet, "/api/v1/roles/janitor/"+balancer.Hex(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBearerAuth(t *testing.T) {
	f := newAPIFixture(t)
	body := AmountRequest{Amount: "1"}

	code, resp := f.do(http.MethodPost, "/api/v1/deposit", body, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, resp.RequestID)

	forged, err := NewAPIToken("other-secret", user, jwt.RegisteredClaims{})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deposit", bytes.NewBufferString(`{"amount":"1"}`))
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := NewAPIToken(testSecret, user, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/deposit", bytes.NewBufferString(`{"amount":"1"}`))
	req.Header.Set("Authorization", "Bearer "+expired)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	notAddress, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/deposit", bytes.NewBufferString(`{"amount":"1"}`))
	req.Header.Set("Authorization", "Bearer "+notAddress)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	disabled := NewHTTPServer(f.vault, nil, "").Router()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/deposit", bytes.NewBufferString(`{"amount":"1"}`))
	req.Header.Set("Authorization", "Bearer "+f.token(user))
	w = httptest.NewRecorder()
	disabled.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWithdrawFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.fund(user, 500_000_000)

	code, resp := f.do(http.MethodPost, "/api/v1/deposit", AmountRequest{Amount: "500"}, &user)
	require.Equal(t, http.StatusOK, code, resp.Error)
	minted := new(big.Int).Mul(big.NewInt(500), types.Pow10(18))
	assert.Equal(t, minted, f.vaultToken.Balance(user))

	f.vaultToken.Approve(user, custody, minted)
	code, resp = f.do(http.MethodPost, "/api/v1/withdraw/request",
		WithdrawRequestBody{Amount: "500", Receiver: receiver.Hex()}, &user)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.JSONEq(t, `{"request_id":0}`, string(resp.Data))

	code, resp = f.do(http.MethodGet, "/api/v1/withdraw?status=pending", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var pending []WithdrawRequestView
	require.NoError(t, json.Unmarshal(resp.Data, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "500.000000", pending[0].Amount)

	code, resp = f.do(http.MethodPost, "/api/v1/withdraw/accept",
		AcceptWithdrawBody{RequestIds: []uint64{0}, PaybackRatio: "0.7"}, &balancer)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, big.NewInt(350_000_000), f.vault.LockedBalance())

	code, resp = f.do(http.MethodGet, "/api/v1/withdraw/0", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var ready WithdrawRequestView
	require.NoError(t, json.Unmarshal(resp.Data, &ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "0.7", ready.PaybackRatio)
	assert.Equal(t, "350.000000", ready.Payout)

	// anyone may claim, the receiver gets paid
	code, resp = f.do(http.MethodPost, "/api/v1/withdraw/0/claim", nil, &owner)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.Equal(t, big.NewInt(350_000_000), f.collateral.Balance(receiver))

	code, resp = f.do(http.MethodGet, "/api/v1/events?type=WithdrawClaimedEvent", nil, nil)
	require.Equal(t, http.StatusOK, code)
	var events []EventView
	require.NoError(t, json.Unmarshal(resp.Data, &events))
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Payload, `"request_id":0`)

	code, _ = f.do(http.MethodGet, "/api/v1/events?limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDepositToSymmioOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	require.NoError(t, f.vault.GrantRole(ctx, owner, access.RoleDepositor, balancer))
	f.fund(user, 100_000_000)
	code, resp := f.do(http.MethodPost, "/api/v1/deposit", AmountRequest{Amount: "100"}, &user)
	require.Equal(t, http.StatusOK, code, resp.Error)

	code, resp = f.do(http.MethodPost, "/api/v1/symmio/deposit", AmountRequest{Amount: "40"}, &balancer)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.JSONEq(t, fmt.Sprintf(`{"amount":"40000000","solver":"%s"}`, solver.Hex()), string(resp.Data))

	require.NoError(t, f.vault.SetSolver(ctx, owner, receiver))
	code, resp = f.do(http.MethodPost, "/api/v1/symmio/deposit", AmountRequest{Amount: "10"}, &balancer)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.JSONEq(t, fmt.Sprintf(`{"amount":"10000000","solver":"%s"}`, receiver.Hex()), string(resp.Data))

	code, _ = f.do(http.MethodPost, "/api/v1/symmio/deposit", AmountRequest{Amount: "1"}, &user)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestVaultErrorsOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	code, _ := f.do(http.MethodPost, "/api/v1/withdraw/accept",
		AcceptWithdrawBody{RequestIds: []uint64{0}, PaybackRatio: "0.7"}, &user)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.do(http.MethodPost, "/api/v1/withdraw/9/claim", nil, &user)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(http.MethodGet, "/api/v1/withdraw/9", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(http.MethodGet, "/api/v1/withdraw/x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(http.MethodPost, "/api/v1/deposit", `{"amount":`, &user)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = f.do(http.MethodPost, "/api/v1/deposit", AmountRequest{Amount: "0.0000001"}, &user)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = f.do(http.MethodPost, "/api/v1/deposit", AmountRequest{Amount: "1001"}, &user)
	assert.Equal(t, http.StatusConflict, code)
	code, _ = f.do(http.MethodPost, "/api/v1/deposit", AmountRequest{Amount: "0"}, &user)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	// no allowance, the pull fails
	code, _ = f.do(http.MethodPost, "/api/v1/deposit", AmountRequest{Amount: "1"}, &user)
	assert.Equal(t, http.StatusBadGateway, code)

	f.fund(user, 100_000_000)
	require.Equal(t, http.StatusOK, mustCode(f.do(http.MethodPost, "/api/v1/deposit", AmountRequest{Amount: "100"}, &user)))
	f.vaultToken.Approve(user, custody, new(big.Int).Mul(big.NewInt(100), types.Pow10(18)))
	require.Equal(t, http.StatusOK, mustCode(f.do(http.MethodPost, "/api/v1/withdraw/request",
		WithdrawRequestBody{Amount: "100", Receiver: receiver.Hex()}, &user)))
	code, _ = f.do(http.MethodPost, "/api/v1/withdraw/accept",
		AcceptWithdrawBody{RequestIds: []uint64{0}, PaybackRatio: "0.4"}, &balancer)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = f.do(http.MethodPost, "/api/v1/withdraw/0/claim", nil, &user)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = f.do(http.MethodPost, "/api/v1/admin/pause", nil, &pauser)
	assert.Equal(t, http.StatusOK, code)
	code, _ = f.do(http.MethodPost, "/api/v1/deposit", AmountRequest{Amount: "1"}, &user)
	assert.Equal(t, http.StatusLocked, code)
	code, _ = f.do(http.MethodPost, "/api/v1/admin/unpause", nil, &pauser)
	assert.Equal(t, http.StatusOK, code)
	code, _ = f.do(http.MethodPost, "/api/v1/admin/unpause", nil, &pauser)
	assert.Equal(t, http.StatusConflict, code)
}

func TestAdminRoutes(t *testing.T) {
	f := newAPIFixture(t)

	code, resp := f.do(http.MethodPost, "/api/v1/admin/roles/grant", RoleRequest{Role: "setter", Account: user.Hex()}, &owner)
	require.Equal(t, http.StatusOK, code, resp.Error)
	assert.True(t, f.vault.HasRole(access.RoleSetter, user))

	code, _ = f.do(http.MethodPost, "/api/v1/admin/deposit-limit", AmountRequest{Amount: "2500.5"}, &user)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, big.NewInt(2_500_500_000), f.vault.DepositLimit())

	code, _ = f.do(http.MethodPost, "/api/v1/admin/payback-ratio", RatioRequest{Ratio: "0.8"}, &user)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0.8", types.FormatRatio(f.vault.MinimumPaybackRatio()))
	code, _ = f.do(http.MethodPost, "/api/v1/admin/payback-ratio", RatioRequest{Ratio: "1.5"}, &user)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	newSolver := common.HexToAddress("0x0000000000000000000000000000000000000009")
	code, _ = f.do(http.MethodPost, "/api/v1/admin/solver", AddressRequest{Address: newSolver.Hex()}, &user)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = f.do(http.MethodPost, "/api/v1/admin/solver", AddressRequest{Address: newSolver.Hex()}, &owner)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, newSolver, f.vault.Solver())
	code, _ = f.do(http.MethodPost, "/api/v1/admin/solver", AddressRequest{Address: common.Address{}.Hex()}, &owner)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, resp = f.do(http.MethodPost, "/api/v1/admin/roles/revoke", RoleRequest{Role: "setter", Account: user.Hex()}, &owner)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"has_role":false`)

	code, resp = f.do(http.MethodGet, "/api/v1/roles/admin", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), owner.Hex())
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{vault.ErrUnauthorized, http.StatusForbidden},
		{vault.ErrPaused, http.StatusLocked},
		{vault.ErrNotPaused, http.StatusConflict},
		{vault.ErrInvalidRequestID, http.StatusNotFound},
		{vault.ErrPaybackRatioTooLow, http.StatusUnprocessableEntity},
		{vault.ErrInsolvent, http.StatusConflict},
		{fmt.Errorf("%w: pay receiver", vault.ErrTransferFailed), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func mustCode(code int, _ apiResponse) int {
	return code
}
