package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/valueobjects"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// DefaultMaxInputChars caps how much document text is sent for extraction
const DefaultMaxInputChars = 24000

// Assistant implements the model-driven ports on top of a Completer
type Assistant struct {
	completer     ports.Completer
	maxInputChars int
	logger        *zap.Logger
}

var (
	_ ports.TopicExtractor  = (*Assistant)(nil)
	_ ports.TopicDecomposer = (*Assistant)(nil)
	_ ports.Tutor           = (*Assistant)(nil)
)

// NewAssistant creates an assistant; maxInputChars <= 0 uses the default
func NewAssistant(completer ports.Completer, maxInputChars int, logger *zap.Logger) *Assistant {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	return &Assistant{completer: completer, maxInputChars: maxInputChars, logger: logger}
}

type extraction struct {
	Topics      []commands.TopicRecord      `json:"topics"`
	Connections []commands.ConnectionRecord `json:"connections"`
}

// ExtractTopics asks the model for the topics and prerequisite pairs taught by text
func (a *Assistant) ExtractTopics(ctx context.Context, text string) ([]commands.TopicRecord, []commands.ConnectionRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, pkgerrors.NewValidationError("document has no extractable text").WithCode("EMPTY_DOCUMENT")
	}
	if len(text) > a.maxInputChars {
		a.logger.Info("Truncating document for extraction",
			zap.Int("length", len(text)),
			zap.Int("limit", a.maxInputChars),
		)
		text = truncateUTF8(text, a.maxInputChars)
	}

	reply, err := a.completer.Complete(ctx, extractionSystemPrompt, "Study material:\n\n"+text)
	if err != nil {
		return nil, nil, err
	}

	var out extraction
	if err := decodeReply(reply, &out); err != nil {
		return nil, nil, err
	}
	a.logger.Debug("Topics extracted",
		zap.Int("topics", len(out.Topics)),
		zap.Int("connections", len(out.Connections)),
	)
	return out.Topics, out.Connections, nil
}

// Decompose asks the model for the prerequisite hierarchy of topic. The
// result always ends at topic: a ROOT entry is added when the model left it out.
func (a *Assistant) Decompose(ctx context.Context, topic string) (valueobjects.PrerequisiteMap, error) {
	topic = strings.TrimSpace(topic)
	reply, err := a.completer.Complete(ctx, decompositionSystemPrompt, "Main Topic: "+topic)
	if err != nil {
		return valueobjects.PrerequisiteMap{}, err
	}

	var prereqs valueobjects.PrerequisiteMap
	if err := decodeReply(reply, &prereqs); err != nil {
		return valueobjects.PrerequisiteMap{}, err
	}

	entries := prereqs.Entries()
	for _, e := range entries {
		if e.IsRoot() {
			return prereqs, nil
		}
	}
	if len(entries) == 0 {
		return prereqs, nil
	}
	entries = append(entries, valueobjects.PrerequisiteEntry{Prerequisite: topic, Dependent: valueobjects.RootSentinel})
	return valueobjects.NewPrerequisiteMap(entries...), nil
}

// Explain asks the model to teach topic, naming what the learner already covered
func (a *Assistant) Explain(ctx context.Context, topic string, prerequisites []string, question string) (string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Topic: %s\n", topic)
	if len(prerequisites) > 0 {
		fmt.Fprintf(&prompt, "The learner has already studied: %s\n", strings.Join(prerequisites, ", "))
	}
	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&prompt, "Their question: %s\n", q)
	}

	reply, err := a.completer.Complete(ctx, tutorSystemPrompt, prompt.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func decodeReply(reply string, v interface{}) error {
	raw, err := extractJSONObject(reply)
	if err != nil {
		return pkgerrors.NewExternalError("llm", err).WithCode("LLM_BAD_OUTPUT")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return pkgerrors.NewExternalError("llm", fmt.Errorf("decode model output: %w", err)).WithCode("LLM_BAD_OUTPUT")
	}
	return nil
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// Disabled implements the model-driven ports when no provider is configured
type Disabled struct{}

func (Disabled) ExtractTopics(context.Context, string) ([]commands.TopicRecord, []commands.ConnectionRecord, error) {
	return nil, nil, ErrDisabled
}

func (Disabled) Decompose(context.Context, string) (valueobjects.PrerequisiteMap, error) {
	return valueobjects.PrerequisiteMap{}, ErrDisabled
}

func (Disabled) Explain(context.Context, string, []string, string) (string, error) {
	return "", ErrDisabled
}
