package vault

import (
	"context"
	"testing"
)

func TestGetProviderKeyMissReturnsNil(t *testing.T) {
	c := NewMockClient()

	data, err := c.GetProviderKey(context.Background(), "gemini")
	if err != nil {
		t.Fatalf("unconfigured provider should not error, got %v", err)
	}
	if data != nil {
		t.Fatalf("unconfigured provider should return nil, got %+v", data)
	}
}

func TestProviderKeyRoundTrip(t *testing.T) {
	c := NewMockClient()
	ctx := context.Background()

	stored := ProviderKeyData{Provider: "mistral", APIKey: "mk-12345", Model: "mistral-large", Enabled: true}
	if err := c.StoreProviderKey(ctx, stored); err != nil {
		t.Fatalf("StoreProviderKey failed: %v", err)
	}

	data, err := c.GetProviderKey(ctx, "mistral")
	if err != nil {
		t.Fatalf("GetProviderKey failed: %v", err)
	}
	if data == nil || data.APIKey != "mk-12345" {
		t.Fatalf("got %+v, want stored key", data)
	}

	if err := c.DeleteProviderKey(ctx, "mistral"); err != nil {
		t.Fatalf("DeleteProviderKey failed: %v", err)
	}
	data, err = c.GetProviderKey(ctx, "mistral")
	if err != nil || data != nil {
		t.Fatalf("deleted provider should return nil, nil; got %+v, %v", data, err)
	}
}
