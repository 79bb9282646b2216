package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"smartlead_backend/internal/leads/adjustcache"
	"smartlead_backend/internal/leads/scoring"
	"smartlead_backend/platform/ai/openai"
	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/logger"
	"smartlead_backend/platform/sanitize"
)

const (
	adjusterSystemPrompt = "You are an expert sales analyst."
	adjusterTemperature  = float32(0.7)
	adjusterMaxTokens    = int32(200)
	maxAdjusterTimeout   = 10 * time.Second
	maxPromptFieldRunes  = 200
	maxPromptNotesRunes  = 2000
)

// ScoreAdjuster asks a chat model for a bounded correction to a lead's score.
// Results are cached per lead until Invalidate is called; concurrent requests
// for the same lead share one model call.
type ScoreAdjuster struct {
	llm     model.LLM
	cache   adjustcache.Cache
	timeout time.Duration
	log     *logger.Logger

	group singleflight.Group

	mu      sync.Mutex
	flights map[uuid.UUID]*leadFlight
}

// leadFlight exists only while a model call for the lead is running. gen is
// bumped by Invalidate so the call knows its answer is stale.
type leadFlight struct {
	gen    uint64
	active int
}

// NewScoreAdjuster wires the adjuster. A timeout outside (0, 10s] is
// replaced by 10s.
func NewScoreAdjuster(llm model.LLM, cache adjustcache.Cache, timeout time.Duration, log *logger.Logger) *ScoreAdjuster {
	if cache == nil {
		cache = adjustcache.NewMemory()
	}
	if log == nil {
		log = logger.Discard()
	}
	if timeout <= 0 || timeout > maxAdjusterTimeout {
		timeout = maxAdjusterTimeout
	}
	return &ScoreAdjuster{llm: llm, cache: cache, timeout: timeout, log: log, flights: make(map[uuid.UUID]*leadFlight)}
}

// Adjust returns the clamped adjustment for lead, or 0 when the model is
// unreachable, slow or answers with something unusable.
func (a *ScoreAdjuster) Adjust(ctx context.Context, lead scoring.Lead) int {
	if a == nil || a.llm == nil {
		return 0
	}

	if !lead.HasID() {
		adjustment, err := a.request(ctx, lead)
		if err != nil {
			a.logFailure(ctx, lead.ID, err)
			return 0
		}
		return adjustment
	}

	if cached, ok := a.cache.Get(ctx, lead.ID); ok {
		metricCache.WithLabelValues("hit").Inc()
		return cached
	}
	metricCache.WithLabelValues("miss").Inc()

	key := lead.ID.String()
	value, err, _ := a.group.Do(key, func() (any, error) {
		// Shared by every caller waiting on key, so no single caller's
		// cancellation may abort it. request still bounds it by a.timeout.
		callCtx := context.WithoutCancel(ctx)
		gen := a.begin(lead.ID)
		defer a.end(lead.ID)

		adjustment, err := a.request(callCtx, lead)
		if err != nil {
			return 0, err
		}
		if a.generation(lead.ID) == gen {
			a.cache.Set(callCtx, lead.ID, adjustment)
			if a.generation(lead.ID) != gen {
				a.cache.Invalidate(callCtx, lead.ID)
			}
		}
		return adjustment, nil
	})
	if err != nil {
		a.logFailure(ctx, lead.ID, err)
		return 0
	}
	return value.(int)
}

// Invalidate drops the cached adjustment. A model call already in flight for
// the lead will not repopulate the cache.
func (a *ScoreAdjuster) Invalidate(ctx context.Context, leadID uuid.UUID) {
	if a == nil {
		return
	}
	a.mu.Lock()
	if f, ok := a.flights[leadID]; ok {
		f.gen++
	}
	a.mu.Unlock()
	a.group.Forget(leadID.String())
	a.cache.Invalidate(ctx, leadID)
}

// ClearCache drops every cached adjustment.
func (a *ScoreAdjuster) ClearCache(ctx context.Context) {
	if a == nil {
		return
	}
	a.cache.Clear(ctx)
}

func (a *ScoreAdjuster) begin(leadID uuid.UUID) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.flights[leadID]
	if !ok {
		f = &leadFlight{}
		a.flights[leadID] = f
	}
	f.active++
	return f.gen
}

func (a *ScoreAdjuster) end(leadID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.flights[leadID]
	if !ok {
		return
	}
	if f.active--; f.active == 0 {
		delete(a.flights, leadID)
	}
}

func (a *ScoreAdjuster) generation(leadID uuid.UUID) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if f, ok := a.flights[leadID]; ok {
		return f.gen
	}
	return 0
}

func (a *ScoreAdjuster) request(ctx context.Context, lead scoring.Lead) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	temperature := adjusterTemperature
	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText(buildAdjustmentPrompt(lead), genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(adjusterSystemPrompt, genai.RoleUser),
			Temperature:       &temperature,
			MaxOutputTokens:   adjusterMaxTokens,
		},
	}

	var (
		resp *model.LLMResponse
		err  error
	)
	for r, e := range a.llm.GenerateContent(ctx, req, false) {
		resp, err = r, e
		break
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, apperr.Wrap(apperr.KindLLMTimeout, "adjustment request timed out", err)
		}
		return 0, apperr.Wrap(apperr.KindLLMUnavailable, "adjustment request failed", err)
	}

	reply, err := parseAdjustmentReply(openai.ResponseText(resp))
	if err != nil {
		return 0, err
	}

	adjustment := scoring.ClampAdjustment(reply.Adjustment)
	metricAdjustments.WithLabelValues("success").Inc()
	a.log.Info("ai score adjustment received",
		"leadId", lead.ID, "adjustment", adjustment, "reasoning", reply.Reasoning, "nextAction", reply.NextAction)
	return adjustment, nil
}

func (a *ScoreAdjuster) logFailure(ctx context.Context, leadID uuid.UUID, err error) {
	kind := apperr.GetKind(err)
	outcome := "error"
	switch kind {
	case apperr.KindLLMTimeout:
		outcome = "timeout"
	case apperr.KindLLMMalformed:
		outcome = "malformed"
	}
	metricAdjustments.WithLabelValues(outcome).Inc()
	a.log.WithContext(ctx).Warn("ai score adjustment skipped", "leadId", leadID, "kind", kind.String(), "error", err)
}

func buildAdjustmentPrompt(lead scoring.Lead) string {
	var b strings.Builder
	b.WriteString("Analyze this sales lead and provide a scoring adjustment (-20 to +20):\n\n")
	b.WriteString("Lead Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", sanitize.PromptLine(lead.Name, maxPromptFieldRunes))
	fmt.Fprintf(&b, "- Company: %s\n", sanitize.PromptLine(lead.Company, maxPromptFieldRunes))
	fmt.Fprintf(&b, "- Job Title: %s\n", sanitize.PromptLine(lead.JobTitle, maxPromptFieldRunes))
	fmt.Fprintf(&b, "- Email: %s\n", sanitize.PromptLine(lead.Email, maxPromptFieldRunes))
	if notes := sanitize.PromptLine(lead.Notes, maxPromptNotesRunes); notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", notes)
	}
	b.WriteString("\nBased on this information, provide:\n")
	b.WriteString("1. A score adjustment between -20 and +20\n")
	b.WriteString("2. Brief reasoning (one sentence)\n")
	b.WriteString("3. Recommended next action\n\n")
	b.WriteString("Format your response as JSON:\n")
	b.WriteString("{\n  \"adjustment\": <number>,\n  \"reasoning\": \"<string>\",\n  \"nextAction\": \"<string>\"\n}")
	return b.String()
}

type adjustmentReply struct {
	Adjustment int
	Reasoning  string
	NextAction string
}

// parseAdjustmentReply reads the JSON object spanning the first '{' to the
// last '}' of text. A missing or non-numeric adjustment reads as 0;
// fractional values truncate toward zero.
func parseAdjustmentReply(text string) (adjustmentReply, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return adjustmentReply{}, apperr.New(apperr.KindLLMMalformed, "no JSON object in model reply")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
		return adjustmentReply{}, apperr.Wrap(apperr.KindLLMMalformed, "model reply is not valid JSON", err)
	}

	reply := adjustmentReply{
		Adjustment: numberField(fields["adjustment"]),
		Reasoning:  stringField(fields["reasoning"]),
		NextAction: stringField(fields["nextAction"]),
	}
	return reply, nil
}

func numberField(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
