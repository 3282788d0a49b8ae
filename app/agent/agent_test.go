package agent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatwidget/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplyShapes(t *testing.T) {
	t.Run("response and sources", func(t *testing.T) {
		r := ParseReply([]byte(`{"response":"hi [1]","sources":[{"title":"A","url":"https://x/a"}]}`))
		assert.Equal(t, "hi [1]", r.Text)
		assert.Len(t, r.Sources, 1)
		assert.False(t, r.Grouped)
	})
	t.Run("answer and citations", func(t *testing.T) {
		r := ParseReply([]byte(`{"answer":"a","citations":["https://x/b"]}`))
		assert.Equal(t, "a", r.Text)
		assert.Equal(t, []any{"https://x/b"}, r.Sources)
	})
	t.Run("nested output", func(t *testing.T) {
		r := ParseReply([]byte(`{"output":{"text":"t","sources":[]}}`))
		assert.Equal(t, "t", r.Text)
		assert.Equal(t, []any{}, r.Sources)
	})
	t.Run("grouped citations", func(t *testing.T) {
		r := ParseReply([]byte(`{"output":{"text":"t"},"citations":[{"retrievedReferences":[{"content":{"text":"s"},"location":{"webLocation":{"url":"https://x/c"}}}]}]}`))
		assert.Equal(t, "t", r.Text)
		assert.True(t, r.Grouped)
	})
	t.Run("bare string", func(t *testing.T) {
		r := ParseReply([]byte(`"just text"`))
		assert.Equal(t, "just text", r.Text)
		assert.Nil(t, r.Sources)
	})
	t.Run("plain text", func(t *testing.T) {
		r := ParseReply([]byte("Hello there\nSources:\n[1] x"))
		assert.Equal(t, "Hello there\nSources:\n[1] x", r.Text)
	})
	t.Run("repairable json", func(t *testing.T) {
		r := ParseReply([]byte(`{"response": "fixed", "sources": [{"title": "A"},]`))
		assert.Equal(t, "fixed", r.Text)
		assert.Len(t, r.Sources, 1)
	})
}

func TestChatJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":"ok","sources":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, nil)
	reply, err := c.Chat(context.Background(), types.ChatRequest{Message: "q", UserLanguage: "en", OutputLanguage: "en"})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)

	assert.Equal(t, "q", got["message"])
	assert.Equal(t, "en", got["user_language"])
	assert.Equal(t, "en", got["output_language"])
	assert.Equal(t, []any{}, got["conversation_history"])
}

func TestChatMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "with file", r.FormValue("message"))
		assert.JSONEq(t, `[{"role":"user","content":"earlier"}]`, r.FormValue("conversation_history"))
		assert.Equal(t, "es", r.FormValue("user_language"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "a.png", hdr.Filename)
		b, _ := io.ReadAll(f)
		assert.Equal(t, []byte("png-bytes"), b)

		_, _ = io.WriteString(w, `{"response":"got it"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, nil)
	reply, err := c.Chat(context.Background(), types.ChatRequest{
		Message:             "with file",
		ConversationHistory: []types.HistoryEntry{{Role: "user", Content: "earlier"}},
		UserLanguage:        "es",
		OutputLanguage:      "es",
		Attachment:          &types.Attachment{Name: "a.png", ContentType: "image/png", Data: []byte("png-bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "got it", reply.Text)
}

func TestChatStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second, nil).Chat(context.Background(), types.ChatRequest{Message: "q"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "boom", se.Body)
}

func TestLanguages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"languages":{"en":"English","es":"Español"}}`)
	}))
	defer srv.Close()

	langs, err := NewClient("", srv.URL, time.Second, nil).Languages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "English", "es": "Español"}, langs)
}
