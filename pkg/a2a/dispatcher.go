package a2a

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripgo-dev/tripgo/internal/aggregate"
	"github.com/tripgo-dev/tripgo/internal/observability"
	"github.com/tripgo-dev/tripgo/internal/workflow"
	pkgobs "github.com/tripgo-dev/tripgo/pkg/observability"
	"github.com/tripgo-dev/tripgo/pkg/security"
	"github.com/tripgo-dev/tripgo/pkg/session"
)

// anonymousCaller is the rate-limit bucket for requests without a user ID.
const anonymousCaller = "anonymous"

// protocolVersion is reported in recommendation processing metadata.
const protocolVersion = "a2a-1.0"

// emitFunc publishes one progress payload to a caller's stream.
// It is nil for synchronous invocations.
type emitFunc func(data map[string]any)

// handlerFunc serves one skill invocation inside an open session.
type handlerFunc func(ctx context.Context, sess *session.Session, req *ExecuteRequest, emit emitFunc) (map[string]any, error)

// Dispatcher routes skill invocations to their handlers. Every request
// opens a session that is closed exactly once, whatever the outcome.
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	card     AgentCard
	skills   map[string]Skill
	handlers map[string]handlerFunc

	engine   *workflow.Engine
	sessions *session.Manager
	auth     security.Authenticator
	limiter  *security.RateLimiter
	timeouts *security.SkillTimeouts

	startedAt       time.Time
	requestsHandled atomic.Int64
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithAuthenticator enables the authentication gate for skills that
// require it. Without an authenticator, gated skills reject every
// request.
func WithAuthenticator(auth security.Authenticator) DispatcherOption {
	return func(d *Dispatcher) {
		d.auth = auth
	}
}

// WithRateLimiter installs admission control in front of dispatch.
func WithRateLimiter(limiter *security.RateLimiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.limiter = limiter
	}
}

// WithSkillTimeouts installs per-skill execution deadlines.
func WithSkillTimeouts(timeouts *security.SkillTimeouts) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeouts = timeouts
	}
}

// WithAgentCard overrides the discovery card.
func WithAgentCard(card AgentCard) DispatcherOption {
	return func(d *Dispatcher) {
		d.card = card
	}
}

// NewDispatcher creates a dispatcher over the workflow engine and
// session manager. The skill table is closed at construction: only the
// skills on the agent card are routable.
func NewDispatcher(engine *workflow.Engine, sessions *session.Manager, opts ...DispatcherOption) *Dispatcher {
	if engine == nil {
		panic("dispatcher engine cannot be nil")
	}
	if sessions == nil {
		panic("dispatcher session manager cannot be nil")
	}

	d := &Dispatcher{
		engine:    engine,
		sessions:  sessions,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.card.Name == "" {
		d.card = NewAgentCard("", d.auth != nil)
	}

	d.skills = make(map[string]Skill, len(d.card.Skills))
	for _, skill := range d.card.Skills {
		d.skills[skill.ID] = skill
	}
	d.handlers = map[string]handlerFunc{
		SkillRecommendation: d.handleRecommendation,
		SkillStatus:         d.handleStatus,
	}
	return d
}

// Card returns the discovery document for this agent.
func (d *Dispatcher) Card() AgentCard {
	return d.card
}

// supportedSkillIDs lists routable skill IDs in card order.
func (d *Dispatcher) supportedSkillIDs() []string {
	ids := make([]string, 0, len(d.card.Skills))
	for _, skill := range d.card.Skills {
		ids = append(ids, skill.ID)
	}
	return ids
}

// Execute serves one skill invocation synchronously. The response is
// never nil; failures are reported through Success and Error.
func (d *Dispatcher) Execute(ctx context.Context, req *ExecuteRequest) *ExecuteResponse {
	return d.dispatch(ctx, req, nil)
}

// ExecuteStream serves one skill invocation with progress streaming.
// The returned channel carries zero or more progress chunks and then
// exactly one final chunk, after which it is closed. This holds on
// every path, including authentication failures and handler panics.
func (d *Dispatcher) ExecuteStream(ctx context.Context, req *ExecuteRequest) <-chan StreamChunk {
	ch := make(chan StreamChunk, 32)

	go func() {
		defer close(ch)

		var sessionID atomic.Value
		resp := d.dispatch(ctx, req, func(data map[string]any) {
			id, _ := sessionID.Load().(string)
			pkgobs.RecordStreamChunk("progress")
			ch <- StreamChunk{SessionID: id, ChunkData: data}
		}, func(id string) {
			sessionID.Store(id)
		})

		final := map[string]any{}
		if resp.Success {
			final["type"] = "result"
			for k, v := range resp.OutputData {
				final[k] = v
			}
		} else {
			final["type"] = "error"
			final["error"] = resp.Error
			for k, v := range resp.Metadata {
				final[k] = v
			}
		}
		pkgobs.RecordStreamChunk("final")
		ch <- StreamChunk{SessionID: resp.SessionID, ChunkData: final, IsFinal: true}
	}()

	return ch
}

// dispatch runs the full request lifecycle: admission, session open,
// routing, auth gate, handler execution, session close.
func (d *Dispatcher) dispatch(ctx context.Context, req *ExecuteRequest, emit emitFunc, onSession ...func(string)) (resp *ExecuteResponse) {
	ctx, span := observability.StartSpanWithOtel(ctx, "a2a.dispatch",
		trace.WithAttributes(
			attribute.String("a2a.skill_id", req.SkillID),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if !resp.Success {
			status = "error"
		}
		pkgobs.RecordDispatch(req.SkillID, status, time.Since(start))
	}()

	callerID := req.UserID
	if callerID == "" {
		callerID = anonymousCaller
	}

	if d.limiter != nil && !d.limiter.Allow(callerID) {
		return &ExecuteResponse{
			Success:  false,
			Error:    "Rate limit exceeded",
			Metadata: map[string]any{"error_code": CodeRateLimited},
		}
	}

	sess, errResp := d.openSession(ctx, req)
	if errResp != nil {
		return errResp
	}
	for _, fn := range onSession {
		fn(sess.ID)
	}

	// The session closes exactly once, whatever happens below.
	defer func() {
		if _, err := d.sessions.End(context.WithoutCancel(ctx), sess.ID); err != nil {
			log.Printf("a2a: closing session %s: %v", sess.ID, err)
		}
	}()

	if err := d.sessions.RecordRequest(ctx, sess.ID); err != nil {
		log.Printf("a2a: recording request on session %s: %v", sess.ID, err)
	}
	d.requestsHandled.Add(1)

	skill, known := d.skills[req.SkillID]
	handler := d.handlers[req.SkillID]
	if !known || handler == nil {
		return &ExecuteResponse{
			Success:   false,
			Error:     fmt.Sprintf("Unsupported skill: %s", req.SkillID),
			SessionID: sess.ID,
			Metadata: map[string]any{
				"error_code":       CodeUnsupportedSkill,
				"supported_skills": d.supportedSkillIDs(),
			},
		}
	}

	if skill.AuthenticationRequired {
		if err := d.authenticate(ctx, req.AuthToken); err != nil {
			return &ExecuteResponse{
				Success:   false,
				Error:     "Authentication failed",
				SessionID: sess.ID,
				Metadata:  map[string]any{"error_code": CodeAuthFailed},
			}
		}
	}

	if d.timeouts != nil {
		var cancel context.CancelFunc
		ctx, cancel = d.timeouts.WithTimeout(ctx, skill.ID)
		defer cancel()
	}

	// Handlers and anything they call can recover the session from ctx.
	ctx = session.NewContext(ctx, sess)

	output, err := d.invoke(ctx, handler, sess, req, emit)
	if err != nil {
		span.RecordError(err)
		return &ExecuteResponse{
			Success:   false,
			Error:     err.Error(),
			SessionID: sess.ID,
			Metadata:  map[string]any{"error_code": CodeInternal},
		}
	}

	return &ExecuteResponse{
		Success:    true,
		OutputData: output,
		SessionID:  sess.ID,
	}
}

// openSession resolves the session for a request: it reuses the
// caller-supplied session when one is named and still open, and opens a
// fresh one otherwise. A failure produces a ready-to-return response.
func (d *Dispatcher) openSession(ctx context.Context, req *ExecuteRequest) (*session.Session, *ExecuteResponse) {
	if req.SessionID != "" {
		sess, err := d.sessions.Get(ctx, req.SessionID)
		if err != nil || sess.Status != session.StatusActive {
			return nil, &ExecuteResponse{
				Success:  false,
				Error:    fmt.Sprintf("Unknown session: %s", req.SessionID),
				Metadata: map[string]any{"error_code": CodeUnknownSession},
			}
		}
		return sess, nil
	}

	sess, err := d.sessions.Create(ctx, req.SkillID, req.UserID, req.InputData)
	if err != nil {
		return nil, &ExecuteResponse{
			Success:  false,
			Error:    fmt.Sprintf("session creation failed: %v", err),
			Metadata: map[string]any{"error_code": CodeInternal},
		}
	}
	return sess, nil
}

// authenticate applies the token gate. A dispatcher without an
// authenticator rejects gated skills outright.
func (d *Dispatcher) authenticate(ctx context.Context, token string) error {
	if d.auth == nil {
		return security.ErrMissingToken
	}
	_, err := d.auth.Authenticate(ctx, token)
	return err
}

// invoke runs a handler with panic containment.
func (d *Dispatcher) invoke(ctx context.Context, handler handlerFunc, sess *session.Session, req *ExecuteRequest, emit emitFunc) (output map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("skill handler panicked: %v", rec)
		}
	}()

	return handler(ctx, sess, req, emit)
}

// progressObserver bridges workflow state changes into stream chunks.
type progressObserver struct {
	workflow.NopObserver
	emit emitFunc
}

func (o *progressObserver) OnStateChange(sessionID string, from, to workflow.State) {
	if to.Terminal() {
		return
	}
	o.emit(map[string]any{
		"type":     "progress",
		"state":    string(to),
		"progress": to.Progress(),
		"message":  fmt.Sprintf("추천 분석 중: %s", to),
	})
}

// handleRecommendation runs the full recommendation workflow.
func (d *Dispatcher) handleRecommendation(ctx context.Context, sess *session.Session, req *ExecuteRequest, emit emitFunc) (map[string]any, error) {
	query := stringInput(req.InputData, "query")
	budget := intInput(req.InputData, "budget")

	wctx := workflow.NewContext(sess.ID, query, budget)

	var extra []workflow.Observer
	if emit != nil {
		extra = append(extra, &progressObserver{emit: emit})
	}

	result, err := d.engine.Run(ctx, wctx, extra...)
	if err != nil {
		return nil, err
	}

	output := aggregate.Assemble(result)
	output["processing_info"] = map[string]any{
		"agent_name":       d.card.Name,
		"protocol_version": protocolVersion,
	}
	return output, nil
}

// handleStatus reports agent health and activity statistics.
func (d *Dispatcher) handleStatus(ctx context.Context, sess *session.Session, req *ExecuteRequest, emit emitFunc) (map[string]any, error) {
	stats := d.sessions.Stats()

	return map[string]any{
		"agent_name": d.card.Name,
		"status":     "active",
		"capabilities": map[string]any{
			"streaming":      d.card.Capabilities.Streaming,
			"authentication": d.card.Capabilities.Authentication,
		},
		"statistics": map[string]any{
			"requests_handled": d.requestsHandled.Load(),
			"active_sessions":  stats.Active,
			"sessions_created": stats.TotalCreated,
			"sessions_closed":  stats.TotalClosed,
			"uptime":           time.Since(d.startedAt).Round(time.Second).String(),
		},
		"supported_skills": d.supportedSkillIDs(),
	}, nil
}

func stringInput(input map[string]any, key string) string {
	if input == nil {
		return ""
	}
	switch v := input[key].(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}

func intInput(input map[string]any, key string) int {
	if input == nil {
		return 0
	}
	switch v := input[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
