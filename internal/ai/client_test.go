package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pharmapos/m/domain"
)

func testItems() []domain.InventoryItem {
	return []domain.InventoryItem{
		{
			Name: "Amoxicillin 500mg", GenericName: "Amoxicillin",
			Quantity: 45, Unit: "capsules", MinStockLevel: 50, ExpiryDate: "2025-12-01",
		},
		{
			Name: "Panadol Extra", GenericName: "Paracetamol",
			Quantity: 500, Unit: "tablets", MinStockLevel: 100, ExpiryDate: "2026-01-20",
		},
	}
}

func TestAnalysisPrompt(t *testing.T) {
	prompt := analysisPrompt(testItems())

	want := []string{
		"Amoxicillin 500mg (Generic: Amoxicillin): Qty 45 capsules, Min 50, Exp 2025-12-01",
		"Panadol Extra (Generic: Paracetamol): Qty 500 tablets, Min 100, Exp 2026-01-20",
		"Critical Stock Alerts",
		"Expiration Risks",
		"Restock Recommendations",
		"General Health",
	}
	for _, fragment := range want {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestAnalyzeInventoryWithoutKey(t *testing.T) {
	client := New("", "gemini-2.5-flash", "http://unused")

	reply, err := client.AnalyzeInventory(context.Background(), testItems())
	if err != nil {
		t.Fatalf("AnalyzeInventory: %v", err)
	}
	if reply != MissingKeyMessage {
		t.Fatalf("reply = %q, want missing-key message", reply)
	}
}

func TestAnalyzeInventoryRoundTrip(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query: %s", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "Inventory looks healthy."}}}},
			},
		})
	}))
	defer server.Close()

	client := New("test-key", "gemini-2.5-flash", server.URL)
	reply, err := client.AnalyzeInventory(context.Background(), testItems())
	if err != nil {
		t.Fatalf("AnalyzeInventory: %v", err)
	}
	if reply != "Inventory looks healthy." {
		t.Fatalf("reply = %q", reply)
	}
	if len(captured.Contents) != 1 || captured.Contents[0].Role != "user" {
		t.Fatalf("request contents = %+v", captured.Contents)
	}
}

func TestChatCarriesHistoryAndSystemInstruction(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "Take with food."}}}},
			},
		})
	}))
	defer server.Close()

	client := New("test-key", "gemini-2.5-flash", server.URL)
	history := []ChatMessage{
		{Role: "user", Text: "Does amoxicillin interact with alcohol?"},
		{Role: "model", Text: "Moderate alcohol is usually fine, but..."},
	}
	reply, err := client.Chat(context.Background(), history, "How should it be taken?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "Take with food." {
		t.Fatalf("reply = %q", reply)
	}

	if captured.SystemInstruction == nil || !strings.Contains(captured.SystemInstruction.Parts[0].Text, "AI Pharmacist Assistant") {
		t.Fatalf("system instruction = %+v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("contents length = %d, want history plus message", len(captured.Contents))
	}
	last := captured.Contents[2]
	if last.Role != "user" || last.Parts[0].Text != "How should it be taken?" {
		t.Fatalf("last content = %+v", last)
	}
}

func TestGenerateErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New("test-key", "gemini-2.5-flash", server.URL)
	if _, err := client.AnalyzeInventory(context.Background(), testItems()); err == nil {
		t.Fatal("AnalyzeInventory succeeded against a failing service")
	}
}
