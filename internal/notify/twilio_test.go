package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilio_SendSMS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550100", r.PostForm.Get("To"))
		assert.Equal(t, "+15550200", r.PostForm.Get("From"))
		assert.Equal(t, "stay safe", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	notifier, err := NewTwilioNotifier(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		FromNumber: "+15550200",
		BaseURL:    server.URL,
	})
	require.NoError(t, err)

	require.NoError(t, notifier.SendSMS(context.Background(), "+15550100", "stay safe"))
}

func TestTwilio_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid number"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	notifier, err := NewTwilioNotifier(TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		FromNumber: "+15550200",
		BaseURL:    server.URL,
	})
	require.NoError(t, err)

	err = notifier.SendSMS(context.Background(), "+15550100", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestTwilio_Validation(t *testing.T) {
	_, err := NewTwilioNotifier(TwilioConfig{})
	assert.Error(t, err)

	notifier, err := NewTwilioNotifier(TwilioConfig{AccountSID: "a", AuthToken: "b", FromNumber: "+1"})
	require.NoError(t, err)
	assert.Error(t, notifier.SendSMS(context.Background(), "  ", "msg"))
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, Nop().SendSMS(context.Background(), "+15550100", "msg"))
}
