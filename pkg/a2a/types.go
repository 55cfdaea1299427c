package a2a

// Error codes carried in ExecuteResponse metadata.
const (
	// CodeAuthFailed marks requests rejected by the authentication gate.
	CodeAuthFailed = "AUTH_FAILED"
	// CodeRateLimited marks requests rejected by admission control.
	CodeRateLimited = "RATE_LIMITED"
	// CodeUnsupportedSkill marks requests for skills this agent does not serve.
	CodeUnsupportedSkill = "UNSUPPORTED_SKILL"
	// CodeUnknownSession marks requests that reference a session this
	// agent does not hold open.
	CodeUnknownSession = "UNKNOWN_SESSION"
	// CodeInternal marks requests that failed inside a skill handler.
	CodeInternal = "INTERNAL_ERROR"
)

// ExecuteRequest is one inbound skill invocation.
type ExecuteRequest struct {
	// SkillID selects the skill to invoke.
	SkillID string `json:"skillId"`
	// SessionID continues an existing open session instead of opening a
	// new one (optional). The session still closes when the request ends.
	SessionID string `json:"sessionId,omitempty"`
	// UserID identifies the calling agent or user (optional).
	UserID string `json:"userId,omitempty"`
	// AuthToken carries the caller's credential for gated skills.
	AuthToken string `json:"authToken,omitempty"`
	// InputData is the skill-specific payload.
	InputData map[string]any `json:"inputData,omitempty"`
}

// ExecuteResponse is the synchronous result of one invocation.
type ExecuteResponse struct {
	// Success reports whether the skill handler completed.
	Success bool `json:"success"`
	// OutputData is the skill-specific result payload.
	OutputData map[string]any `json:"outputData,omitempty"`
	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`
	// SessionID identifies the session opened for this request.
	SessionID string `json:"sessionId,omitempty"`
	// Metadata carries error codes and processing details.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StreamChunk is one streamed notification. A stream carries zero or
// more progress chunks followed by exactly one final chunk.
type StreamChunk struct {
	// SessionID identifies the session the stream belongs to.
	SessionID string `json:"sessionId"`
	// ChunkData is the chunk payload.
	ChunkData map[string]any `json:"chunkData"`
	// IsFinal marks the terminal chunk of the stream.
	IsFinal bool `json:"isFinal"`
}
