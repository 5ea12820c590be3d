package callback

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/model"
	"go-gamehall/internal/provider"
)

type stubReconciler struct {
	got    *provider.Callback
	result provider.Result
}

func (s *stubReconciler) Handle(cb *provider.Callback) provider.Result {
	s.got = cb

	return s.result
}

func TestCallbackDecodesQuery(t *testing.T) {
	rec := &stubReconciler{result: provider.Result{Code: provider.CodeOK, Balance: 1500}}
	handler := NewCallback(slog.Default(), rec).New()

	url := "/provider/callback?username=gh7&action=credit&currency=USD&amount=500" +
		"&round_id=r-9&game_id=slot-1&call_id=abc&timestamp=1693526400&gameplay_final=1&key=aabbcc"

	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.NotNil(t, rec.got)
	assert.Equal(t, "gh7", rec.got.Username)
	assert.Equal(t, model.ProviderCredit, rec.got.Action)
	assert.Equal(t, int64(500), rec.got.Amount)
	assert.Equal(t, "abc", rec.got.CallID)
	assert.True(t, rec.got.Final)
	assert.Equal(t, "aabbcc", rec.got.Key)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, Response{Error: provider.CodeOK, Balance: 1500}, resp)
}

func TestCallbackRejectsBadAmount(t *testing.T) {
	rec := &stubReconciler{}
	handler := NewCallback(slog.Default(), rec).New()

	req := httptest.NewRequest(http.MethodGet, "/provider/callback?amount=ten", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Nil(t, rec.got, "a malformed callback must not reach the reconciler")

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, provider.CodeFailed, resp.Error)
}

func TestCallbackOmittedAmountAndFinal(t *testing.T) {
	rec := &stubReconciler{result: provider.Result{Code: provider.CodeOK, Balance: 100}}
	handler := NewCallback(slog.Default(), rec).New()

	req := httptest.NewRequest(http.MethodGet, "/provider/callback?username=gh7&action=balance&timestamp=1&key=k", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.NotNil(t, rec.got)
	assert.Zero(t, rec.got.Amount)
	assert.False(t, rec.got.Final)
}
