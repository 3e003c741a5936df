package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/skill-navigator/internal/listing"
)

type stubGenerator struct {
	response    string
	err         error
	lastSystem  string
	lastMessage string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.lastSystem = system
	s.lastMessage = message
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func TestEstimatorEstimate(t *testing.T) {
	stub := &stubGenerator{response: `{"score": 0.9, "reason": "Strong React overlap"}`}
	estimator := NewEstimator(stub, zap.NewNop(), 0)

	job := &listing.Job{ID: 7, Title: "Frontend Engineer", Company: "Acme", Requirements: "React, TypeScript"}

	assessment, err := estimator.Estimate(context.Background(), []string{"React", "Git"}, job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assessment.Score != 0.9 {
		t.Fatalf("expected score 0.9, got %v", assessment.Score)
	}
	if assessment.Reason != "Strong React overlap" {
		t.Fatalf("unexpected reason: %q", assessment.Reason)
	}
	if assessment.Raw != stub.response {
		t.Fatalf("expected raw response to be kept")
	}

	if !strings.Contains(stub.lastSystem, "[Output]") {
		t.Fatalf("expected embedded system prompt, got %q", stub.lastSystem)
	}

	var payload estimatePayload
	if err := json.Unmarshal([]byte(stub.lastMessage), &payload); err != nil {
		t.Fatalf("message is not valid json: %v", err)
	}
	if payload.Job.Title != "Frontend Engineer" || payload.Job.Requirements != "React, TypeScript" {
		t.Fatalf("unexpected job payload: %+v", payload.Job)
	}
	if len(payload.CandidateSkills) != 2 || payload.CandidateSkills[0] != "React" {
		t.Fatalf("unexpected skills payload: %v", payload.CandidateSkills)
	}
}

func TestEstimatorLogsJobFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	stub := &stubGenerator{response: `{"score": 0.5}`}
	estimator := NewEstimator(stub, zap.New(core), 10)

	if _, err := estimator.Estimate(context.Background(), nil, &listing.Job{ID: 3, Company: "Globex"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("gemini estimate request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["job_id"] != "3" || fields["company"] != "Globex" {
		t.Fatalf("missing job fields: %v", fields)
	}
	if fields["ai_provider"] != "gemini" || fields["ai_model"] != "stub-model" {
		t.Fatalf("missing provider fields: %v", fields)
	}
	if preview, _ := fields["message_preview"].(string); !strings.HasSuffix(preview, "...") {
		t.Fatalf("expected truncated preview, got %q", preview)
	}
}

func TestEstimatorErrors(t *testing.T) {
	estimator := NewEstimator(&stubGenerator{err: errors.New("boom")}, zap.NewNop(), 0)

	if _, err := estimator.Estimate(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil job")
	}

	if _, err := estimator.Estimate(context.Background(), nil, &listing.Job{ID: 1}); err == nil {
		t.Fatalf("expected generator error to propagate")
	}
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		score   float64
		reason  string
		wantErr bool
	}{
		{name: "bare", raw: `{"score": 0.42, "reason": "ok"}`, score: 0.42, reason: "ok"},
		{name: "code block", raw: "```json\n{\"score\": \"0.8\", \"reason\": \"Looks good\"}\n```", score: 0.8, reason: "Looks good"},
		{name: "percentage", raw: `{"score": 85}`, score: 0.85},
		{name: "percentage string", raw: `{"score": "70%"}`, score: 0.7},
		{name: "clamped", raw: `{"score": -3}`, score: 0},
		{name: "surrounding text", raw: "Here you go: {\"score\": 0.3, \"reason\": \"weak\"} thanks", score: 0.3, reason: "weak"},
		{name: "missing score", raw: `{"reason": "no idea"}`, wantErr: true},
		{name: "not json", raw: "I cannot help with that", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assessment, err := parseResponse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", assessment)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if assessment.Score != tt.score {
				t.Fatalf("expected score %v, got %v", tt.score, assessment.Score)
			}
			if assessment.Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, assessment.Reason)
			}
		})
	}
}
