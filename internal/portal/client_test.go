package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ykvlv/checkin-bot/internal/domain"
)

type fakePortal struct {
	loginBody   string
	loginCookie bool
	saveBody    string
	savedForms  []map[string][]string
}

func (f *fakePortal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2020211000", r.PostForm.Get("username"))
		if f.loginCookie {
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "sess-1"})
		}
		_, _ = w.Write([]byte(f.loginBody))
	})
	mux.HandleFunc(savePath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		ck, err := r.Cookie(SessionCookie)
		require.NoError(t, err)
		assert.Equal(t, "sess-1", ck.Value)
		f.savedForms = append(f.savedForms, r.PostForm)
		_, _ = w.Write([]byte(f.saveBody))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakePortal) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := New(srv.Client(), srv.URL+"/", rate.NewLimiter(rate.Inf, 1))
	c.now = func() time.Time { return time.Date(2025, time.May, 6, 17, 0, 0, 0, time.UTC) }
	return c
}

func TestAuthenticate_Success(t *testing.T) {
	c := newTestClient(t, &fakePortal{loginBody: `{"e":0,"m":"操作成功","d":{}}`, loginCookie: true})

	s, err := c.Authenticate(context.Background(), "2020211000", "pw")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", s.Cookie.Value)
}

func TestAuthenticate_Failures(t *testing.T) {
	cases := map[string]struct {
		body   string
		cookie bool
		reason string
	}{
		"rejected":   {body: `{"e":1,"m":"账号或密码错误"}`, cookie: true, reason: "账号或密码错误"},
		"not json":   {body: `<html>maintenance</html>`, cookie: true, reason: "unexpected login response"},
		"bad shape":  {body: `{"code":0}`, cookie: true, reason: "unexpected login response"},
		"no session": {body: `{"e":0,"m":"ok"}`, cookie: false, reason: "portal returned no session"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, &fakePortal{loginBody: tc.body, loginCookie: tc.cookie})

			_, err := c.Authenticate(context.Background(), "2020211000", "pw")
			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, domain.KindAuthentication, de.Kind)
			assert.Equal(t, tc.reason, de.Reason)
		})
	}
}

func TestSubmitCheckin_SendsDeclaration(t *testing.T) {
	f := &fakePortal{
		loginBody:   `{"e":0,"m":"ok"}`,
		loginCookie: true,
		saveBody:    `{"e":0,"m":"操作成功"}`,
	}
	c := newTestClient(t, f)
	ctx := context.Background()

	s, err := c.Authenticate(ctx, "2020211000", "pw")
	require.NoError(t, err)

	rec := domain.NewRegistration(1, "2020211000", "pw")
	rec = domain.WithCampus(rec, false)
	msg, err := c.SubmitCheckin(ctx, s, DeclarationFor(rec))
	require.NoError(t, err)
	assert.Equal(t, "操作成功", msg)

	require.Len(t, f.savedForms, 1)
	form := f.savedForms[0]
	assert.Equal(t, []string{"0"}, form["sfzx"])
	assert.Equal(t, []string{rec.Area}, form["area"])
	assert.Equal(t, []string{"20250507"}, form["date"]) // 17:00 UTC is the next day in UTC+8
	assert.Len(t, form, StaticFieldCount()+8)

	var geo map[string]any
	require.NoError(t, json.Unmarshal([]byte(form["geo_api_info"][0]), &geo))
	assert.Equal(t, rec.Address, geo["formattedAddress"])
	assert.Equal(t, "海淀区", geo["addressComponent"].(map[string]any)["district"])
}

func TestSubmitCheckin_ReturnsRejectionMessage(t *testing.T) {
	c := newTestClient(t, &fakePortal{saveBody: `{"e":1,"m":"今天已经填报了"}`})

	msg, err := c.SubmitCheckin(context.Background(), Session{Cookie: &http.Cookie{Name: SessionCookie, Value: "sess-1"}}, Declaration{})
	require.NoError(t, err)
	assert.Equal(t, "今天已经填报了", msg)
}

func TestSubmitCheckin_NonJSON(t *testing.T) {
	c := newTestClient(t, &fakePortal{saveBody: `502 Bad Gateway`})

	_, err := c.SubmitCheckin(context.Background(), Session{Cookie: &http.Cookie{Name: SessionCookie, Value: "sess-1"}}, Declaration{})
	assert.True(t, domain.IsKind(err, domain.KindMalformedUpstream))
}
