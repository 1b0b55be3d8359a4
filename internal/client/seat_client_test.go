package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wirelive/multihost-service/internal/protocol"
)

func TestSeatClient_Send_ReturnsProcessID(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    101,
		})
	}))
	defer server.Close()

	c := NewSeatClient(server.URL, "tok-1")
	id, err := c.Send(context.Background(), protocol.ActionInvite, 2, "user-a", "room-9")
	require.NoError(t, err)
	require.Equal(t, 101, id)

	require.Equal(t, "/api/v1/users/user-a/rooms/room-9/seats", gotPath)
	require.Equal(t, "Bearer tok-1", gotAuth)
	require.Equal(t, map[string]int{"no": 2, "type": 1}, gotBody)
}

func TestSeatClient_Send_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": "SEAT_TAKEN", "message": "seat 2 is occupied"},
		})
	}))
	defer server.Close()

	c := NewSeatClient(server.URL, "")
	_, err := c.Send(context.Background(), protocol.ActionApply, 2, "owner-1", "room-9")
	require.Error(t, err)
	require.Contains(t, err.Error(), "SEAT_TAKEN")
}

func TestSeatClient_Send_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewSeatClient(server.URL, "")
	_, err := c.Send(context.Background(), protocol.ActionEnd, 1, "owner-1", "room-9")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
