package models

import (
	"encoding/json"
	"time"
)

// FunctionCategory groups function definitions in the builder.
type FunctionCategory string

const (
	CategoryDataProcessing FunctionCategory = "data_processing"
	CategoryIntegration    FunctionCategory = "integration"
	CategoryAutomation     FunctionCategory = "automation"
	CategoryNotification   FunctionCategory = "notification"
	CategoryCalculation    FunctionCategory = "calculation"
	CategoryValidation     FunctionCategory = "validation"
	CategoryTransformation FunctionCategory = "transformation"
	CategoryUtility        FunctionCategory = "utility"
)

// DataType is the declared type of a function input or output.
type DataType string

const (
	DataString  DataType = "string"
	DataNumber  DataType = "number"
	DataBoolean DataType = "boolean"
	DataDate    DataType = "date"
	DataFile    DataType = "file"
	DataBinary  DataType = "binary"
	DataList    DataType = "list"
	DataObject  DataType = "object"
	DataEnum    DataType = "enum"
	DataJSON    DataType = "json"
)

// InputSource is where an input value comes from.
type InputSource string

const (
	SourceUserInput    InputSource = "user_input"
	SourceDatabase     InputSource = "database"
	SourceFile         InputSource = "file"
	SourceHTTPRequest  InputSource = "http_request"
	SourceEnvVariable  InputSource = "environment_variable"
	SourceMessageQueue InputSource = "message_queue"
)

// StepType names the intended behavior of a logic step. Steps are data only;
// nothing in this service evaluates them.
type StepType string

const (
	StepCondition          StepType = "condition"
	StepLoop               StepType = "loop"
	StepVariableAssignment StepType = "variable_assignment"
	StepCalculation        StepType = "calculation"
	StepFormat             StepType = "format"
	StepTransformation     StepType = "transformation"
	StepEventAction        StepType = "event_action"
	StepWaitDelay          StepType = "wait_delay"
	StepRetry              StepType = "retry"
	StepStopFunction       StepType = "stop_function"
	StepReturnOutput       StepType = "return_output"
)

// FunctionDefinition is the root of a builder function. While IsLocked is set
// neither it nor any of its children may change.
type FunctionDefinition struct {
	ID            string           `json:"id" db:"id"`
	Name          string           `json:"name" db:"name" validate:"required,max=200"`
	Category      FunctionCategory `json:"category" db:"category" validate:"required,oneof=data_processing integration automation notification calculation validation transformation utility"`
	Description   string           `json:"description" db:"description"`
	Tags          []string         `json:"tags" db:"tags"`
	IsLocked      bool             `json:"is_locked" db:"is_locked"`
	VersionNumber string           `json:"version_number" db:"version_number"`
	EditableBy    []string         `json:"editable_by" db:"editable_by"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

func (f FunctionDefinition) RecordID() string { return f.ID }

// FunctionInput is a declared input of a function, ordered by Position.
type FunctionInput struct {
	ID           string          `json:"id" db:"id"`
	FunctionID   string          `json:"function_id" db:"function_id" validate:"required"`
	Name         string          `json:"name" db:"name" validate:"required"`
	DataType     DataType        `json:"data_type" db:"data_type" validate:"required,oneof=string number boolean date file binary list object enum json"`
	Required     bool            `json:"required" db:"required"`
	DefaultValue *string         `json:"default_value,omitempty" db:"default_value"`
	Source       InputSource     `json:"source" db:"source" validate:"required,oneof=user_input database file http_request environment_variable message_queue"`
	Constraints  json.RawMessage `json:"constraints,omitempty" db:"constraints"`
	Position     int             `json:"position" db:"position" validate:"min=0"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

func (i FunctionInput) RecordID() string { return i.ID }

// FunctionOutput is a declared output of a function.
type FunctionOutput struct {
	ID               string          `json:"id" db:"id"`
	FunctionID       string          `json:"function_id" db:"function_id" validate:"required"`
	Name             string          `json:"name" db:"name" validate:"required"`
	DataType         DataType        `json:"data_type" db:"data_type" validate:"required,oneof=string number boolean date file binary list object enum json"`
	SuccessStructure json.RawMessage `json:"success_structure,omitempty" db:"success_structure"`
	FailureStructure json.RawMessage `json:"failure_structure,omitempty" db:"failure_structure"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

func (o FunctionOutput) RecordID() string { return o.ID }

// InputMapping binds a function input to a step variable.
type InputMapping struct {
	InputName    string `json:"input_name"`
	StepVariable string `json:"step_variable"`
}

// FixedVariable is a constant available to a step.
type FixedVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// OutputVariable is a variable a step exports to later steps.
type OutputVariable struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// StepOutputMapping pulls an output variable of an earlier step into this one.
type StepOutputMapping struct {
	SourceStepID   string `json:"source_step_id"`
	SourceOutput   string `json:"source_output"`
	TargetVariable string `json:"target_variable"`
}

// FunctionLogicStep is one ordered step of a function. Position decides both
// display order and which steps count as earlier for mapping.
type FunctionLogicStep struct {
	ID                 string              `json:"id" db:"id"`
	FunctionID         string              `json:"function_id" db:"function_id" validate:"required"`
	StepID             string              `json:"step_id" db:"step_id" validate:"required"`
	StepType           StepType            `json:"step_type" db:"step_type" validate:"required,oneof=condition loop variable_assignment calculation format transformation event_action wait_delay retry stop_function return_output"`
	Config             json.RawMessage     `json:"config,omitempty" db:"config"`
	InputMappings      []InputMapping      `json:"input_mappings" db:"input_mappings"`
	FixedVariables     []FixedVariable     `json:"fixed_variables" db:"fixed_variables"`
	OutputVariables    []OutputVariable    `json:"output_variables" db:"output_variables"`
	StepOutputMappings []StepOutputMapping `json:"step_output_mappings" db:"step_output_mappings"`
	Position           int                 `json:"position" db:"position" validate:"min=0"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" db:"updated_at"`
}

func (s FunctionLogicStep) RecordID() string { return s.ID }

// OutputNames returns the names of the variables this step exports.
func (s FunctionLogicStep) OutputNames() []string {
	names := make([]string, 0, len(s.OutputVariables))
	for _, v := range s.OutputVariables {
		names = append(names, v.Name)
	}
	return names
}

// RetryStrategy is how a failing function is retried.
type RetryStrategy string

const (
	RetryNone        RetryStrategy = "none"
	RetryFixed       RetryStrategy = "fixed"
	RetryExponential RetryStrategy = "exponential"
)

// TimeoutBehavior is what happens when a function times out.
type TimeoutBehavior string

const (
	TimeoutAbort    TimeoutBehavior = "abort"
	TimeoutRetry    TimeoutBehavior = "retry"
	TimeoutFallback TimeoutBehavior = "fallback"
)

// FunctionErrorHandling is one-to-one with a function; ID equals FunctionID.
type FunctionErrorHandling struct {
	ID                string          `json:"id" db:"id"`
	FunctionID        string          `json:"function_id" db:"function_id" validate:"required"`
	RetryStrategy     RetryStrategy   `json:"retry_strategy" db:"retry_strategy" validate:"required,oneof=none fixed exponential"`
	MaxRetries        int             `json:"max_retries" db:"max_retries" validate:"min=0,max=100"`
	TimeoutBehavior   TimeoutBehavior `json:"timeout_behavior" db:"timeout_behavior" validate:"required,oneof=abort retry fallback"`
	FallbackAction    string          `json:"fallback_action" db:"fallback_action"`
	ReturnErrorFormat json.RawMessage `json:"return_error_format,omitempty" db:"return_error_format"`
	Notification      string          `json:"notification" db:"notification"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

func (e FunctionErrorHandling) RecordID() string { return e.ID }
