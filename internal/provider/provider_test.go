package provider

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// testClient returns a probe Client without rate limiting, suitable for
// httptest servers.
func testClient() *Client {
	return NewClient(ClientOptions{UserAgent: "raventrace-test"})
}

func emailQuery(t *testing.T, raw string) model.Query {
	t.Helper()
	q, err := model.NewQuery(raw, model.KindEmail, "")
	require.NoError(t, err)
	return q
}

func handleQuery(t *testing.T, raw string) model.Query {
	t.Helper()
	q, err := model.NewQuery(raw, model.KindHandle, "")
	require.NoError(t, err)
	return q
}

func TestReputationProbe(t *testing.T) {
	t.Parallel()

	t.Run("known address", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/user@example.com", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"reputation": "high",
				"suspicious": false,
				"references": 42,
				"details": {"domain_exists": true, "domain_reputation": "high"},
				"profiles": ["github", "twitter"]
			}`))
		}))
		defer srv.Close()

		probe := NewReputationProbe(testClient(), "")
		probe.baseURL = srv.URL

		payload, err := probe.Probe(context.Background(), emailQuery(t, "user@example.com"))
		require.NoError(t, err)
		require.NotNil(t, payload)

		data, ok := payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "high", data["reputation"])
		assert.Equal(t, 42, data["references"])
		assert.Equal(t, true, data["domain_exists"])
	})

	t.Run("unknown address is empty not failed", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		probe := NewReputationProbe(testClient(), "")
		probe.baseURL = srv.URL

		payload, err := probe.Probe(context.Background(), emailQuery(t, "user@example.com"))
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("api key sent as header", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "sekrit", r.Header.Get("Key"))
			_, _ = w.Write([]byte(`{"reputation": "none"}`))
		}))
		defer srv.Close()

		probe := NewReputationProbe(testClient(), "sekrit")
		probe.baseURL = srv.URL

		_, err := probe.Probe(context.Background(), emailQuery(t, "user@example.com"))
		require.NoError(t, err)
	})
}

// fakeResolver serves canned DNS answers.
type fakeResolver struct {
	mx  []*net.MX
	txt []string
}

func (r *fakeResolver) LookupMX(_ context.Context, _ string) ([]*net.MX, error) {
	return r.mx, nil
}

func (r *fakeResolver) LookupTXT(_ context.Context, _ string) ([]string, error) {
	return r.txt, nil
}

func TestDNSProbe(t *testing.T) {
	t.Parallel()

	t.Run("records found", func(t *testing.T) {
		t.Parallel()

		probe := NewDNSProbe(&fakeResolver{
			mx:  []*net.MX{{Host: "mx1.example.com.", Pref: 10}},
			txt: []string{"v=spf1 include:_spf.example.com ~all", "verification=abc"},
		})

		payload, err := probe.Probe(context.Background(), emailQuery(t, "user@example.com"))
		require.NoError(t, err)
		require.NotNil(t, payload)

		data := payload.(map[string]any)
		assert.Equal(t, "example.com", data["domain"])
		assert.Equal(t, []string{"mx1.example.com"}, data["mx"])
		assert.Equal(t, "v=spf1 include:_spf.example.com ~all", data["spf"])
	})

	t.Run("no records is empty", func(t *testing.T) {
		t.Parallel()

		probe := NewDNSProbe(&fakeResolver{})

		payload, err := probe.Probe(context.Background(), emailQuery(t, "user@example.com"))
		require.NoError(t, err)
		assert.Nil(t, payload)
	})
}

func TestGravatarProbe(t *testing.T) {
	t.Parallel()

	t.Run("avatar exists", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		probe := NewGravatarProbe(testClient())
		probe.baseURL = srv.URL

		payload, err := probe.Probe(context.Background(), emailQuery(t, "user@example.com"))
		require.NoError(t, err)
		require.NotNil(t, payload)
		assert.Equal(t, true, payload.(map[string]any)["found"])
	})

	t.Run("no avatar is empty", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		probe := NewGravatarProbe(testClient())
		probe.baseURL = srv.URL

		payload, err := probe.Probe(context.Background(), emailQuery(t, "user@example.com"))
		require.NoError(t, err)
		assert.Nil(t, payload)
	})
}

func TestBreachProbe(t *testing.T) {
	t.Parallel()

	t.Run("breaches found", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/breachedaccount/", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.Header.Get("hibp-api-key"))
			_, _ = w.Write([]byte(`[{"Name":"Adobe","Title":"Adobe","BreachDate":"2013-10-04","PwnCount":152445165,"DataClasses":["Email addresses","Passwords"]}]`))
		})
		mux.HandleFunc("/leak", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"found":1,"sources":[{"name":"Collection #1","date":"2019-01"}]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		probe := NewBreachProbe(testClient(), "test-key")
		probe.hibpBase = srv.URL
		probe.leakCheckURL = srv.URL + "/leak"

		payload, err := probe.Probe(context.Background(), emailQuery(t, "user@example.com"))
		require.NoError(t, err)
		require.NotNil(t, payload)

		breaches := payload.([]any)
		require.Len(t, breaches, 2)
		first := breaches[0].(map[string]any)
		assert.Equal(t, "haveibeenpwned", first["source"])
		assert.Equal(t, "Adobe", first["breach_name"])
	})

	t.Run("clean account is empty not failed", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/breachedaccount/", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		mux.HandleFunc("/leak", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"found":0,"sources":[]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		probe := NewBreachProbe(testClient(), "test-key")
		probe.hibpBase = srv.URL
		probe.leakCheckURL = srv.URL + "/leak"

		payload, err := probe.Probe(context.Background(), emailQuery(t, "clean@example.com"))
		require.NoError(t, err)
		assert.Nil(t, payload)
	})
}

func TestCarrierProbe(t *testing.T) {
	t.Parallel()

	q, err := model.NewQuery("06 12 34 56 78", model.KindPhone, "FR")
	require.NoError(t, err)

	probe := NewCarrierProbe()
	payload, err := probe.Probe(context.Background(), q)
	require.NoError(t, err)
	require.NotNil(t, payload)

	data := payload.(map[string]any)
	assert.Equal(t, "FR", data["country"])
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "mobile", data["type"])
}

func TestSocialMediaProbe(t *testing.T) {
	t.Parallel()

	t.Run("hits collected misses omitted", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/found/johndoe" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		probe := NewSocialMediaProbe(testClient())
		probe.platforms = []platform{
			{"siteA", srv.URL + "/found/%s"},
			{"siteB", srv.URL + "/missing/%s"},
		}

		payload, err := probe.Probe(context.Background(), handleQuery(t, "johndoe"))
		require.NoError(t, err)
		require.NotNil(t, payload)

		hits := payload.([]any)
		require.Len(t, hits, 1)
		assert.Equal(t, "siteA", hits[0].(map[string]any)["platform"])
	})

	t.Run("all misses is empty", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		probe := NewSocialMediaProbe(testClient())
		probe.platforms = []platform{{"siteA", srv.URL + "/%s"}}

		payload, err := probe.Probe(context.Background(), handleQuery(t, "johndoe"))
		require.NoError(t, err)
		assert.Nil(t, payload)
	})
}

func TestCodeRepoProbe(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/johndoe", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"login":"johndoe","name":"John Doe","html_url":"https://github.com/johndoe","public_repos":12}`))
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	probe := NewCodeRepoProbe(testClient())
	probe.githubAPI = srv.URL
	probe.gitlabAPI = srv.URL

	payload, err := probe.Probe(context.Background(), handleQuery(t, "johndoe"))
	require.NoError(t, err)
	require.NotNil(t, payload)

	repos := payload.([]any)
	require.Len(t, repos, 1)
	gh := repos[0].(map[string]any)
	assert.Equal(t, "github", gh["platform"])
	assert.Equal(t, "johndoe", gh["username"])
	assert.Equal(t, 12, gh["public_repos"])
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry(testClient(), nil)

	emailProbes := registry.For(model.KindEmail)
	assert.Len(t, emailProbes, 5)

	phoneProbes := registry.For(model.KindPhone)
	assert.Len(t, phoneProbes, 3)

	handleProbes := registry.For(model.KindHandle)
	assert.Len(t, handleProbes, 4)

	// Probe names must be unique within a kind: they key the sources map.
	for _, probes := range [][]Probe{emailProbes, phoneProbes, handleProbes} {
		seen := make(map[string]bool)
		for _, p := range probes {
			assert.False(t, seen[p.Name()], "duplicate probe name %q", p.Name())
			seen[p.Name()] = true
		}
	}
}
