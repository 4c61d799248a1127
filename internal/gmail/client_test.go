package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewClient(context.Background(), ts.Client(), nil, option.WithEndpoint(ts.URL+"/"))
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_ListLabels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/labels", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"labels": []map[string]string{
				{"id": "INBOX", "name": "INBOX", "type": "system"},
				{"id": "Label_7", "name": "Rejections", "type": "user"},
			},
		})
	})

	labels, err := c.ListLabels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Label{
		{ID: "INBOX", Name: "INBOX", Type: "system"},
		{ID: "Label_7", Name: "Rejections", Type: "user"},
	}, labels)
}

func TestClient_CreateLabel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/labels", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rejections", body["name"])
		assert.Equal(t, "labelShow", body["labelListVisibility"])
		assert.Equal(t, "show", body["messageListVisibility"])

		writeJSON(t, w, map[string]string{"id": "Label_9", "name": body["name"], "type": "user"})
	})

	label, err := c.CreateLabel(context.Background(), "rejections")
	require.NoError(t, err)
	assert.Equal(t, Label{ID: "Label_9", Name: "rejections", Type: "user"}, label)
}

func TestClient_ListMessages(t *testing.T) {
	tests := []struct {
		name      string
		pageToken string
		response  map[string]any
		want      MessagePage
	}{
		{
			name:      "first page",
			pageToken: "",
			response: map[string]any{
				"messages":           []map[string]string{{"id": "a"}, {"id": "b"}},
				"nextPageToken":      "p2",
				"resultSizeEstimate": 3,
			},
			want: MessagePage{IDs: []string{"a", "b"}, NextPageToken: "p2", ResultSizeEstimate: 3},
		},
		{
			name:      "last page",
			pageToken: "p2",
			response: map[string]any{
				"messages": []map[string]string{{"id": "c"}},
			},
			want: MessagePage{IDs: []string{"c"}},
		},
		{
			name:      "no matches",
			pageToken: "",
			response:  map[string]any{"resultSizeEstimate": 0},
			want:      MessagePage{IDs: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/gmail/v1/users/me/messages", r.URL.Path)
				assert.Equal(t, "in:inbox rejected", r.URL.Query().Get("q"))
				assert.Equal(t, tt.pageToken, r.URL.Query().Get("pageToken"))
				writeJSON(t, w, tt.response)
			})

			page, err := c.ListMessages(context.Background(), "in:inbox rejected", tt.pageToken)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page)
		})
	}
}

func TestClient_BatchModify(t *testing.T) {
	var got map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/messages/batchModify", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.BatchModify(context.Background(), []string{"a", "b"}, []string{"Label_1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got["ids"])
	assert.Equal(t, []string{"Label_1"}, got["addLabelIds"])
	assert.NotContains(t, got, "removeLabelIds")
}

func TestClient_BatchModify_TooManyIDs(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	})

	ids := make([]string, MaxBatchModifyIDs+1)
	err := c.BatchModify(context.Background(), ids, []string{"Label_1"}, nil)
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestClient_Profile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/profile", r.URL.Path)
		writeJSON(t, w, map[string]any{"emailAddress": "jane@example.com", "messagesTotal": 10})
	})

	email, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", email)
}

func TestClient_APIErrorIsPreserved(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"Insufficient Permission"}}`)
	})

	_, err := c.ListLabels(context.Background())
	require.Error(t, err)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
}
