package workflow

// Context is the mutable key-value bag threaded through a single workflow
// run. It is exclusively owned by that run and must not be shared across
// concurrent runs, so access is not synchronized.
type Context struct {
	// SessionID correlates the run with its dispatch session.
	SessionID string
	// UserInput is the raw free-text travel request.
	UserInput string
	// Budget is the caller-supplied total budget in won. Zero means
	// "use the budget extracted from the input".
	Budget int

	values map[string]any
}

// NewContext creates a workflow context seeded with the session id, raw
// user request and budget.
func NewContext(sessionID, userInput string, budget int) *Context {
	return &Context{
		SessionID: sessionID,
		UserInput: userInput,
		Budget:    budget,
		values:    make(map[string]any),
	}
}

// Set stores a step output under key.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the number of stored values.
func (c *Context) Keys() int {
	return len(c.values)
}
