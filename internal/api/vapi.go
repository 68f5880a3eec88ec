package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"retail-intel/internal/format"
)

// Voice tool names
const (
	toolSearchLocation          = "searchLocation"
	toolGetLocationDetails      = "getLocationDetails"
	toolGetLocalRecommendations = "getLocalRecommendations"
	toolAnalyzeTenantGaps       = "analyzeTenantGaps"
	toolFindNearbyCompetitors   = "findNearbyCompetitors"
)

// secretHeader carries the shared secret the voice platform sends on every
// tool-call webhook.
const secretHeader = "X-Vapi-Secret"

// toolParams are the union of parameters across all voice tools.
type toolParams struct {
	LocationName            string   `json:"locationName"`
	TargetLocationName      string   `json:"targetLocationName"`
	CompetitorLocationNames []string `json:"competitorLocationNames"`
	City                    string   `json:"city"`
	RadiusKm                float64  `json:"radiusKm"`
	MinStores               int64    `json:"minStores"`
	DetailLevel             string   `json:"detailLevel"`
	Query                   string   `json:"query"`
}

// toolResult pairs a tool call id with either a result or an error string,
// never both.
type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// toolEnvelope is the webhook response body. The voice platform treats any
// non-200 status as a transport failure and drops the call, so errors ride
// inside the envelope instead.
type toolEnvelope struct {
	Results []toolResult `json:"results"`
}

// toolFunction is the nested function object some request shapes carry.
// Arguments arrive either as an object or as a JSON-encoded string.
type toolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// toolCallRequest covers the request shapes the platform has been observed
// to send: a toolCallList, a toolWithToolCallList, a bare call object, or a
// flat body with toolCallId alongside the parameters.
type toolCallRequest struct {
	Message *struct {
		ToolCallList []struct {
			ID         string          `json:"id"`
			Name       string          `json:"name"`
			Function   *toolFunction   `json:"function"`
			Parameters json.RawMessage `json:"parameters"`
		} `json:"toolCallList"`
		ToolWithToolCallList []struct {
			Name     string        `json:"name"`
			Function *toolFunction `json:"function"`
			ToolCall struct {
				ID         string          `json:"id"`
				Function   *toolFunction   `json:"function"`
				Parameters json.RawMessage `json:"parameters"`
			} `json:"toolCall"`
		} `json:"toolWithToolCallList"`
	} `json:"message"`
	Call *struct {
		ID       string        `json:"id"`
		Function *toolFunction `json:"function"`
	} `json:"call"`
	ToolCallID string `json:"toolCallId"`

	toolParams // flat-body parameters
}

// extractToolCall normalizes whichever shape arrived into (id, name, params).
func extractToolCall(body []byte) (id, name string, params toolParams, err error) {
	var req toolCallRequest
	if err = json.Unmarshal(body, &req); err != nil {
		return "", "", toolParams{}, fmt.Errorf("invalid request body: %w", err)
	}

	switch {
	case req.Message != nil && len(req.Message.ToolCallList) > 0:
		call := req.Message.ToolCallList[0]
		id = call.ID
		name = call.Name
		if call.Function != nil {
			if call.Function.Name != "" {
				name = call.Function.Name
			}
			params = decodeArguments(call.Function.Arguments)
		} else {
			params = decodeArguments(call.Parameters)
		}

	case req.Message != nil && len(req.Message.ToolWithToolCallList) > 0:
		call := req.Message.ToolWithToolCallList[0]
		id = call.ToolCall.ID
		name = call.Name
		if call.Function != nil && call.Function.Name != "" {
			name = call.Function.Name
		}
		if call.ToolCall.Function != nil {
			params = decodeArguments(call.ToolCall.Function.Arguments)
		} else {
			params = decodeArguments(call.ToolCall.Parameters)
		}

	case req.Call != nil && req.Call.ID != "":
		id = req.Call.ID
		if req.Call.Function != nil {
			name = req.Call.Function.Name
			params = decodeArguments(req.Call.Function.Arguments)
		}

	case req.ToolCallID != "":
		id = req.ToolCallID
		params = req.toolParams

	default:
		return "", "", toolParams{}, fmt.Errorf("no tool call found in request")
	}

	return id, name, params, nil
}

// decodeArguments handles both object and string-encoded argument payloads.
func decodeArguments(raw json.RawMessage) toolParams {
	var params toolParams
	if len(raw) == 0 {
		return params
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			_ = json.Unmarshal([]byte(s), &params)
		}
		return params
	}
	_ = json.Unmarshal(raw, &params)
	return params
}

// HandleVoiceTool handles POST /api/vapi/{tool}. Whatever happens, the
// response is HTTP 200 with the outcome embedded in the envelope; only an
// unidentifiable request (no tool call id) gets a plain HTTP error.
func (h *Handlers) HandleVoiceTool(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret != "" && r.Header.Get(secretHeader) != secret {
			http.Error(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		tool := chi.URLParam(r, "tool")

		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		id, name, params, err := extractToolCall(body)
		if err != nil || id == "" {
			http.Error(w, "missing tool call id", http.StatusBadRequest)
			return
		}
		if name == "" {
			name = tool
		}

		result, err := h.runVoiceTool(r.Context(), name, params)
		if err != nil {
			h.log.Warn("voice tool failed",
				zap.String("tool", name),
				zap.Error(err),
			)
			writeJSON(w, http.StatusOK, toolEnvelope{
				Results: []toolResult{{ToolCallID: id, Error: singleLine(err.Error())}},
			})
			return
		}

		writeJSON(w, http.StatusOK, toolEnvelope{
			Results: []toolResult{{ToolCallID: id, Result: singleLine(result)}},
		})
	}
}

// runVoiceTool dispatches one tool call and renders the spoken result.
func (h *Handlers) runVoiceTool(ctx context.Context, name string, params toolParams) (string, error) {
	detail := detailLevel(params.DetailLevel)
	if params.DetailLevel == "" {
		detail = format.DetermineDetailLevel(params.Query)
	}

	switch name {
	case toolSearchLocation:
		match, err := h.resolver.Resolve(params.LocationName, params.City)
		if err != nil {
			return "", fmt.Errorf("I couldn't find a location called %s", params.LocationName)
		}
		spoken := fmt.Sprintf("I found %s in %s.", match.Name, match.City)
		if match.Ambiguous {
			spoken += " There are other similarly named locations, so please confirm this is the one you meant."
		}
		return spoken, nil

	case toolGetLocationDetails:
		match, err := h.resolver.Resolve(params.LocationName, params.City)
		if err != nil {
			return "", fmt.Errorf("I couldn't find a location called %s", params.LocationName)
		}
		loc, err := h.db.GetLocation(ctx, match.LocationID)
		if err != nil {
			return "", err
		}
		return spokenResponse(format.LocationDetails(loc, detail)), nil

	case toolGetLocalRecommendations:
		match, err := h.resolver.Resolve(params.LocationName, params.City)
		if err != nil {
			return "", fmt.Errorf("I couldn't find a location called %s", params.LocationName)
		}
		radiusKm := params.RadiusKm
		if radiusKm <= 0 {
			radiusKm = 5
		}
		distribution, err := h.engine.AreaCategoryDistribution(ctx, match.LocationID, radiusKm)
		if err != nil {
			return "", err
		}
		// Gap analysis enriches the answer when competitors exist; its
		// absence is not a failure.
		analysis, err := h.engine.PerformGapAnalysis(ctx, match.LocationID, nil, radiusKm, detail == format.DetailDetailed)
		if err != nil {
			analysis = nil
		}
		return spokenResponse(format.LocalRecommendations(distribution, analysis, match.Name, radiusKm, detail)), nil

	case toolAnalyzeTenantGaps:
		match, err := h.resolver.Resolve(params.TargetLocationName, params.City)
		if err != nil {
			return "", fmt.Errorf("I couldn't find a location called %s", params.TargetLocationName)
		}
		if len(params.CompetitorLocationNames) == 0 {
			return "", fmt.Errorf("Please tell me which competitor locations to compare %s against", match.Name)
		}
		competitors := h.resolver.ResolveMany(params.CompetitorLocationNames, "")
		ids := make([]string, 0, len(competitors))
		for _, c := range competitors {
			ids = append(ids, c.LocationID)
		}
		if len(ids) == 0 {
			return "", fmt.Errorf("I couldn't find any of the competitor locations you mentioned")
		}
		analysis, err := h.engine.PerformGapAnalysis(ctx, match.LocationID, ids, 0, detail == format.DetailDetailed)
		if err != nil {
			return "", err
		}
		return spokenResponse(format.GapAnalysis(analysis, detail)), nil

	case toolFindNearbyCompetitors:
		match, err := h.resolver.Resolve(params.LocationName, params.City)
		if err != nil {
			return "", fmt.Errorf("I couldn't find a location called %s", params.LocationName)
		}
		var minStores *int64
		if params.MinStores > 0 {
			minStores = &params.MinStores
		}
		competitors, err := h.engine.NearbyCompetitors(ctx, match.LocationID, params.RadiusKm, minStores)
		if err != nil {
			return "", err
		}
		return spokenResponse(format.NearbyCompetitors(competitors, match.Name, detail)), nil

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// spokenResponse flattens a tiered response into one spoken string.
func spokenResponse(resp format.FormattedResponse) string {
	parts := []string{resp.Summary}
	if resp.Details != "" {
		parts = append(parts, resp.Details)
	}
	parts = append(parts, resp.Insights...)
	return strings.Join(parts, " ")
}

// singleLine collapses whitespace so the result survives voice transport.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
