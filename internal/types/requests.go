package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Prompt target values understood by the generation pipeline.
const (
	TargetTypeBlogContent    = "blog_content_keyword_research"
	TargetForCustomer        = "customer_kr"
	TargetForServiceProvider = "service_provider_kr"
)

// GenerateRequest selects the system prompt used to generate a blog post.
type GenerateRequest struct {
	TargetType string `json:"target_type,omitempty" validate:"omitempty,max=100"`
	TargetFor  string `json:"target_for,omitempty" validate:"omitempty,oneof=customer_kr service_provider_kr"`
}

// UpdateSlugRequest is a manual slug change for a blog post.
type UpdateSlugRequest struct {
	Slug string `json:"slug" validate:"required,max=200"`
}

// HighlightRequest asks for keyword annotations over a piece of content.
// Terms come from the keyword record, from Custom, or both.
type HighlightRequest struct {
	Content   string          `json:"content" validate:"required"`
	KeywordID uuid.UUID       `json:"keyword_id,omitempty"`
	Custom    *CustomKeywords `json:"custom_keywords,omitempty"`
}

// Publish actions.
const (
	PublishActionPublish   = "publish"
	PublishActionUnpublish = "unpublish"
)

// PublishRequest publishes a blog post or returns it to draft.
type PublishRequest struct {
	Action string `json:"action" validate:"required,oneof=publish unpublish"`
}

// Schedule actions.
const (
	ScheduleActionSchedule   = "schedule"
	ScheduleActionUnschedule = "unschedule"
	ScheduleActionPublishNow = "publish_now"
)

// ScheduleRequest schedules a blog post for a future time, cancels the
// schedule, or publishes a scheduled post immediately. Action defaults to
// schedule, which needs ScheduledPublish.
type ScheduleRequest struct {
	Action           string     `json:"action,omitempty" validate:"omitempty,oneof=schedule unschedule publish_now"`
	ScheduledPublish *time.Time `json:"scheduled_publish,omitempty"`
}

// BlogGeneratedRequest sets or clears the generated flag of a record.
type BlogGeneratedRequest struct {
	BlogGenerated *bool `json:"blog_generated" validate:"required"`
}

// SystemPromptRequest upserts the prompt and company details for a
// (type, prompt_for) pair.
type SystemPromptRequest struct {
	Prompt           string `json:"prompt,omitempty" validate:"max=20000"`
	CompanyName      string `json:"company_name,omitempty" validate:"max=255"`
	CompanyAbout     string `json:"company_about,omitempty" validate:"max=5000"`
	CompanyDetails   string `json:"company_details,omitempty" validate:"max=5000"`
	Location         string `json:"location,omitempty" validate:"max=255"`
	KeywordGuideline string `json:"keyword_guideline,omitempty" validate:"max=5000"`
}

// StripRequest asks for annotation wrappers to be removed from content.
type StripRequest struct {
	Content string `json:"content" validate:"required"`
}

// CustomKeywordsRequest saves a curated keyword subset. The payload may be an
// object {single_words, phrases} or a bare array of single words.
type CustomKeywordsRequest struct {
	CustomKeywords json.RawMessage `json:"custom_keywords" validate:"required"`
}

// Validate validates the GenerateRequest using the validator.
func (r *GenerateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateSlugRequest using the validator.
func (r *UpdateSlugRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the HighlightRequest using the validator.
func (r *HighlightRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.KeywordID == uuid.Nil && r.Custom == nil {
		return fmt.Errorf("keyword_id or custom_keywords is required")
	}
	return nil
}

// Validate validates the BlogGeneratedRequest using the validator.
func (r *BlogGeneratedRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SystemPromptRequest using the validator.
func (r *SystemPromptRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ToSystemPrompt builds the stored form for the given pair.
func (r *SystemPromptRequest) ToSystemPrompt(promptType, promptFor string) SystemPrompt {
	return SystemPrompt{
		Type:             NormalizePromptType(promptType),
		PromptFor:        promptFor,
		Prompt:           r.Prompt,
		CompanyName:      r.CompanyName,
		CompanyAbout:     r.CompanyAbout,
		CompanyDetails:   r.CompanyDetails,
		Location:         r.Location,
		KeywordGuideline: r.KeywordGuideline,
	}
}

// NormalizePromptType maps the short type "blog" to its stored name.
func NormalizePromptType(t string) string {
	if t == "blog" {
		return TargetTypeBlogContent
	}
	return t
}

// Validate validates the StripRequest using the validator.
func (r *StripRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Normalize converts the request payload to a CustomKeywords value.
func (r *CustomKeywordsRequest) Normalize() (*CustomKeywords, error) {
	if len(r.CustomKeywords) == 0 || string(r.CustomKeywords) == "null" {
		return nil, fmt.Errorf("custom_keywords is required")
	}

	var words []string
	if err := json.Unmarshal(r.CustomKeywords, &words); err == nil {
		return &CustomKeywords{SingleWords: words, Phrases: []string{}}, nil
	}

	var obj struct {
		SingleWords []string `json:"single_words"`
		Phrases     []string `json:"phrases"`
	}
	if err := json.Unmarshal(r.CustomKeywords, &obj); err != nil {
		return nil, fmt.Errorf("custom_keywords must be an object or an array of strings: %w", err)
	}
	if obj.SingleWords == nil {
		obj.SingleWords = []string{}
	}
	if obj.Phrases == nil {
		obj.Phrases = []string{}
	}
	return &CustomKeywords{SingleWords: obj.SingleWords, Phrases: obj.Phrases}, nil
}

// Validate validates the PublishRequest using the validator.
func (r *PublishRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ScheduleRequest using the validator.
func (r *ScheduleRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ScheduleAction returns Action, or schedule when it is empty.
func (r *ScheduleRequest) ScheduleAction() string {
	if r.Action == "" {
		return ScheduleActionSchedule
	}
	return r.Action
}
