package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/naka-gawa/pr-report/internal/domain"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// isolateEnv keeps the developer's PR_REPORT_* variables and .env file out of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PR_REPORT_TOKEN", "PR_REPORT_REPO", "PR_REPORT_DAYS_AGO", "PR_REPORT_DEBUG",
		"PR_REPORT_API_URL", "PR_REPORT_TIMEOUT", "PR_REPORT_RESOLVE_AUTHORS", "PR_REPORT_CONFIG",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	chdir(t, t.TempDir())
}

// chdir changes the working directory for the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func pullJSON(number int, title, state string, created time.Time, merged *time.Time) string {
	mergedAt := "null"
	if merged != nil {
		mergedAt = fmt.Sprintf("%q", merged.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf(`{"number":%d,"title":%q,"html_url":"https://github.com/acme/widgets/pull/%d","state":%q,`+
		`"created_at":%q,"closed_at":%s,"merged_at":%s,"user":{"login":"dev%d"},"labels":[]}`,
		number, title, number, state, created.UTC().Format(time.RFC3339), mergedAt, mergedAt, number)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportCommand_EndToEnd(t *testing.T) {
	isolateEnv(t)
	now := time.Now()
	merged := now.Add(-3 * 24 * time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"full_name":"acme/widgets"}`)
	})
	mux.HandleFunc("/api/v3/repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		fmt.Fprint(w, "["+strings.Join([]string{
			pullJSON(3, "Open PR", "open", now.Add(-3*24*time.Hour), nil),
			pullJSON(2, "Closed PR", "closed", now.Add(-5*24*time.Hour), nil),
			pullJSON(1, "Merged PR", "closed", now.Add(-4*24*time.Hour), &merged),
			pullJSON(9, "Ancient PR", "open", now.Add(-40*24*time.Hour), nil),
		}, ",")+"]")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := execute(t, "report", "--token", "secret", "--repo", "acme/widgets", "--days", "7", "--api-url", server.URL+"/")
	require.NoError(t, err)

	assert.Contains(t, out, "Pull Request Summary for acme/widgets (Last 7 Days)")
	assert.Contains(t, out, "Opened PRs (1):\n- Open PR (#3)")
	assert.Contains(t, out, "Closed PRs (1):\n- Closed PR (#2)")
	assert.Contains(t, out, "Merged PRs (1):\n- Merged PR (#1)")
	assert.Contains(t, out, "Time to merge: median 24h0m0s, mean 24h0m0s")
	assert.NotContains(t, out, "Ancient PR")
	assert.True(t, strings.HasSuffix(out, "Total PRs: 3\n"))
}

func TestReportCommand_RepositoryNotFound(t *testing.T) {
	isolateEnv(t)
	var listed atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	mux.HandleFunc("/api/v3/repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		listed.Add(1)
		fmt.Fprint(w, `[]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := execute(t, "report", "--token", "secret", "--repo", "acme/widgets", "--api-url", server.URL+"/")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
	assert.Empty(t, out, "no partial report on failure")
	assert.Equal(t, int32(0), listed.Load())

	var errOut bytes.Buffer
	printError(&errOut, err)
	assert.Contains(t, errOut.String(), "Error verifying repository: The specified repository 'acme/widgets' was not found.")
}

func TestReportCommand_ConfigurationErrors(t *testing.T) {
	testCases := []struct {
		name         string
		args         []string
		expectedKind error
	}{
		{
			name:         "missing token",
			args:         []string{"report", "--repo", "acme/widgets"},
			expectedKind: domain.ErrMissingConfiguration,
		},
		{
			name:         "malformed repository is rejected before any request",
			args:         []string{"report", "--token", "t", "--repo", "norepo", "--api-url", "http://127.0.0.1:1/"},
			expectedKind: domain.ErrInvalidRepositoryFormat,
		},
		{
			name:         "negative days",
			args:         []string{"report", "--token", "t", "--repo", "acme/widgets", "--days", "-2"},
			expectedKind: domain.ErrInvalidConfiguration,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			isolateEnv(t)
			out, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedKind)
			assert.Empty(t, out)
		})
	}
}

func TestReportCommand_EnvironmentConfiguration(t *testing.T) {
	isolateEnv(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer env-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"full_name":"acme/widgets"}`)
	})
	mux.HandleFunc("/api/v3/repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	t.Setenv("PR_REPORT_TOKEN", "env-token")
	t.Setenv("PR_REPORT_REPO", "acme/widgets")
	t.Setenv("PR_REPORT_DAYS_AGO", "1")
	t.Setenv("PR_REPORT_API_URL", server.URL+"/")

	out, err := execute(t, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "(Last 1 Day)")
	assert.Contains(t, out, "Total PRs: 0")
}
