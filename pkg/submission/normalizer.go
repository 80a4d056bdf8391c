package submission

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// Submission envelopes store the payload under either key depending on the
// API generation that produced them.
var payloadEnvelopeKeys = []string{"submissionData", "submission_data"}

// Option customises a Normalizer.
type Option func(*Normalizer)

// WithLogger injects the logger used to report recoverable payload parse
// failures. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Normalizer converts previously-submitted payloads into the flat State the
// form renderer consumes. Each call is a pure function of its inputs; the
// type only carries the index and logger so callers wire them once.
type Normalizer struct {
	index  *schema.Index
	logger *zap.Logger
}

// NewNormalizer constructs a Normalizer for the given field index. A nil
// index is tolerated: every key then falls back to raw-key assignment.
func NewNormalizer(idx *schema.Index, options ...Option) *Normalizer {
	n := &Normalizer{
		index:  idx,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(n)
	}
	return n
}

// ParseEnvelope extracts the payload from a submission envelope (the object
// returned by the submission endpoint) and decodes it.
func (n *Normalizer) ParseEnvelope(envelope map[string]any) any {
	if envelope == nil {
		return nil
	}
	for _, key := range payloadEnvelopeKeys {
		if raw, ok := envelope[key]; ok && raw != nil {
			return n.ParsePayload(raw)
		}
	}
	return nil
}

// ParsePayload accepts a submission payload that may be stored as a JSON
// string or already decoded. Malformed strings are logged and treated as
// absent rather than surfaced as errors.
func (n *Normalizer) ParsePayload(raw any) any {
	switch value := raw.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(value) == "" {
			return nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			n.logger.Warn("submission: ignoring malformed payload string", zap.Error(err))
			return nil
		}
		return decoded
	case []byte:
		if len(value) == 0 {
			return nil
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			n.logger.Warn("submission: ignoring malformed payload bytes", zap.Error(err))
			return nil
		}
		return decoded
	case map[string]any, []any:
		return value
	default:
		n.logger.Warn("submission: unsupported payload type",
			zap.String("type", fmt.Sprintf("%T", raw)))
		return nil
	}
}

// Build walks an already-decoded payload into a State.
func (n *Normalizer) Build(payload any) State {
	return BuildState(payload, n.index)
}

// BuildFromRaw chains ParsePayload and Build; this is the entry point the
// submission editor uses after fetching a historical record.
func (n *Normalizer) BuildFromRaw(raw any) State {
	return n.Build(n.ParsePayload(raw))
}
