// Package a2a implements the agent-to-agent service surface: skill
// discovery, request dispatch, authentication gating, and streaming
// progress notifications.
package a2a

// Skill describes one callable service the agent offers.
type Skill struct {
	// ID is the stable skill identifier callers route by.
	ID string `json:"id"`
	// Name is the human-readable skill name.
	Name string `json:"name"`
	// Description explains what the skill does.
	Description string `json:"description"`
	// Tags classify the skill for discovery.
	Tags []string `json:"tags,omitempty"`
	// InputModes lists accepted request content types.
	InputModes []string `json:"inputModes,omitempty"`
	// OutputModes lists produced response content types.
	OutputModes []string `json:"outputModes,omitempty"`
	// AuthenticationRequired gates the skill behind token auth.
	AuthenticationRequired bool `json:"authenticationRequired"`
}

// Capabilities advertises protocol-level features.
type Capabilities struct {
	Streaming      bool `json:"streaming"`
	Authentication bool `json:"authentication"`
}

// AgentCard is the service discovery document for this agent.
type AgentCard struct {
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	URL                string       `json:"url,omitempty"`
	Version            string       `json:"version"`
	DefaultInputModes  []string     `json:"defaultInputModes"`
	DefaultOutputModes []string     `json:"defaultOutputModes"`
	Capabilities       Capabilities `json:"capabilities"`
	Skills             []Skill      `json:"skills"`
}

// Skill IDs served by this agent.
const (
	// SkillRecommendation answers travel destination requests.
	SkillRecommendation = "travel_destination_recommendation"
	// SkillStatus reports agent health and statistics.
	SkillStatus = "agent_status_inquiry"
)

// DefaultSkills returns the skills this agent serves.
func DefaultSkills() []Skill {
	return []Skill{
		{
			ID:                     SkillRecommendation,
			Name:                   "여행지 추천 서비스",
			Description:            "다른 에이전트를 위한 여행지 추천 엔드포인트",
			Tags:                   []string{"travel", "recommendation", "a2a-service"},
			InputModes:             []string{"application/json"},
			OutputModes:            []string{"application/json", "text/event-stream"},
			AuthenticationRequired: true,
		},
		{
			ID:                     SkillStatus,
			Name:                   "에이전트 상태 조회",
			Description:            "다른 A2A 에이전트가 상태를 조회하는 서비스",
			Tags:                   []string{"status", "health-check", "a2a-service"},
			InputModes:             []string{"application/json"},
			OutputModes:            []string{"application/json"},
			AuthenticationRequired: false,
		},
	}
}

// NewAgentCard builds the discovery card for the given service URL.
// authEnabled reflects whether the dispatcher enforces token auth.
func NewAgentCard(url string, authEnabled bool) AgentCard {
	return AgentCard{
		Name:               "Travel Recommendation A2A Agent",
		Description:        "여행 추천을 위한 A2A 프로토콜 기반 에이전트",
		URL:                url,
		Version:            "1.0.0",
		DefaultInputModes:  []string{"application/json"},
		DefaultOutputModes: []string{"application/json", "text/event-stream"},
		Capabilities: Capabilities{
			Streaming:      true,
			Authentication: authEnabled,
		},
		Skills: DefaultSkills(),
	}
}
