package models

import (
	"encoding/json"
	"time"
)

// ChatbotModelTypes is the closed list of model types a chatbot may be
// configured with.
var ChatbotModelTypes = []string{
	"customer_support",
	"sales_assistant",
	"technical_support",
	"maintenance_advisor",
	"quality_inspector",
	"production_planner",
	"inventory_manager",
	"safety_monitor",
	"predictive_maintenance",
	"process_optimizer",
	"energy_optimizer",
	"supply_chain",
	"document_assistant",
	"training_assistant",
	"data_analyst",
	"scheduling_assistant",
	"order_tracker",
	"fault_diagnosis",
	"compliance_checker",
	"general_assistant",
}

// IsChatbotModelType reports whether t is in ChatbotModelTypes.
func IsChatbotModelType(t string) bool {
	for _, allowed := range ChatbotModelTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// Chatbot is a configured conversational model, scoped to a project.
type Chatbot struct {
	ID           string    `json:"id" db:"id"`
	ProjectID    *string   `json:"project_id,omitempty" db:"project_id"`
	Name         string    `json:"name" db:"name" validate:"required,max=120"`
	ModelType    string    `json:"model_type" db:"model_type" validate:"required,chatbot_model_type"`
	ModelName    string    `json:"model_name" db:"model_name" validate:"required"`
	APIKey       string    `json:"api_key,omitempty" db:"api_key"`
	EndpointURL  string    `json:"endpoint_url" db:"endpoint_url" validate:"omitempty,url"`
	SystemPrompt string    `json:"system_prompt" db:"system_prompt"`
	Temperature  float64   `json:"temperature" db:"temperature" validate:"min=0,max=2"`
	MaxTokens    int       `json:"max_tokens" db:"max_tokens" validate:"min=1,max=128000"`
	Status       string    `json:"status" db:"status" validate:"required,oneof=active inactive"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (c Chatbot) RecordID() string { return c.ID }

func (c Chatbot) Component() Component {
	status := c.Status
	model := c.ModelName
	comp := Component{ID: c.ID, Name: c.Name, Model: &model, Status: &status}
	if c.EndpointURL != "" {
		url := c.EndpointURL
		comp.EndpointURL = &url
	}
	return comp
}

// Redacted returns a copy without the API key, for responses.
func (c Chatbot) Redacted() Chatbot {
	c.APIKey = ""
	return c
}

// RuleConditionType selects how a rule matches a conversation.
type RuleConditionType string

const (
	ConditionKeyword      RuleConditionType = "keyword"
	ConditionIntent       RuleConditionType = "intent"
	ConditionSentiment    RuleConditionType = "sentiment"
	ConditionTime         RuleConditionType = "time"
	ConditionUserProperty RuleConditionType = "user_property"
)

// RuleActionType is what a matching rule does.
type RuleActionType string

const (
	ActionResponse    RuleActionType = "response"
	ActionRedirect    RuleActionType = "redirect"
	ActionEscalate    RuleActionType = "escalate"
	ActionCollectInfo RuleActionType = "collect_info"
)

// ChatbotRule belongs to a chatbot. Lower priority values take precedence.
type ChatbotRule struct {
	ID             string            `json:"id" db:"id"`
	ChatbotID      string            `json:"chatbot_id" db:"chatbot_id" validate:"required"`
	Name           string            `json:"name" db:"name" validate:"required"`
	ConditionType  RuleConditionType `json:"condition_type" db:"condition_type" validate:"required,oneof=keyword intent sentiment time user_property"`
	ConditionValue json.RawMessage   `json:"condition_value,omitempty" db:"condition_value"`
	ActionType     RuleActionType    `json:"action_type" db:"action_type" validate:"required,oneof=response redirect escalate collect_info"`
	ActionValue    json.RawMessage   `json:"action_value,omitempty" db:"action_value"`
	Priority       int               `json:"priority" db:"priority" validate:"min=0"`
	IsActive       bool              `json:"is_active" db:"is_active"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

func (r ChatbotRule) RecordID() string { return r.ID }
