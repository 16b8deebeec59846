package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/prepxl/prepxl/sdk/go/routes"
)

// ResumeAnalysisRequest asks the AI endpoint to compare a resume against a
// job description.
type ResumeAnalysisRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
}

// Validate checks that required fields are set.
func (r ResumeAnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Resume) == "" {
		return fmt.Errorf("resume is required")
	}
	if strings.TrimSpace(r.JobDescription) == "" {
		return fmt.Errorf("job_description is required")
	}
	return nil
}

// ResumeAnalysis is the structured verdict returned by the AI endpoint.
type ResumeAnalysis struct {
	MatchScore      int      `json:"match_score"`
	MissingKeywords []string `json:"missing_keywords"`
	Strengths       []string `json:"strengths"`
	Suggestions     []string `json:"suggestions"`
}

// AnswerFeedbackRequest asks the AI endpoint to score an interview answer.
type AnswerFeedbackRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	// Keywords the answer is expected to touch on.
	Keywords []string `json:"keywords,omitempty"`
}

// Validate checks that required fields are set.
func (r AnswerFeedbackRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if strings.TrimSpace(r.Answer) == "" {
		return fmt.Errorf("answer is required")
	}
	return nil
}

// AnswerFeedback is the structured score for one interview answer.
type AnswerFeedback struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// The analysis model is a black box behind the API; the SDK only pins down
// the response contract. Responses are validated against these schemas
// before decoding so a malformed model output surfaces as a typed error
// instead of silently-zero fields.
const resumeAnalysisSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["match_score", "missing_keywords", "strengths", "suggestions"],
	"properties": {
		"match_score": {"type": "integer", "minimum": 0, "maximum": 100},
		"missing_keywords": {"type": "array", "items": {"type": "string"}},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"suggestions": {"type": "array", "items": {"type": "string"}}
	}
}`

const answerFeedbackSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["rating", "feedback"],
	"properties": {
		"rating": {"type": "integer", "minimum": 0, "maximum": 10},
		"feedback": {"type": "string", "minLength": 1}
	}
}`

// AnalysisValidationError reports an AI response that failed schema
// validation.
type AnalysisValidationError struct {
	Cause error
}

func (e AnalysisValidationError) Error() string {
	return fmt.Sprintf("sdk: analysis response failed schema validation: %v", e.Cause)
}

func (e AnalysisValidationError) Unwrap() error { return e.Cause }

var (
	schemaOnce           sync.Once
	resumeSchema         *jsonschema.Schema
	answerSchema         *jsonschema.Schema
	schemaCompileFailure error
)

func compileAnalysisSchemas() {
	resumeSchema, schemaCompileFailure = compileSchema("resume_analysis.json", resumeAnalysisSchema)
	if schemaCompileFailure != nil {
		return
	}
	answerSchema, schemaCompileFailure = compileSchema("answer_feedback.json", answerFeedbackSchema)
}

// compileSchema compiles a JSON Schema for validation, draft 2020-12.
func compileSchema(name, schemaJSON string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

// AnalysisClient calls the AI analysis endpoints.
//
// Example:
//
//	analysis, err := client.Analysis.Resume(ctx, sdk.ResumeAnalysisRequest{
//	    Resume:         resumeText,
//	    JobDescription: jdText,
//	})
//	fmt.Printf("match: %d%%\n", analysis.MatchScore)
type AnalysisClient struct {
	client *Client
}

// ensureInitialized returns an error if the client is not properly initialized.
func (c *AnalysisClient) ensureInitialized() error {
	if c == nil || c.client == nil {
		return fmt.Errorf("sdk: analysis client not initialized")
	}
	return nil
}

// Resume runs resume-vs-job-description analysis.
func (c *AnalysisClient) Resume(ctx context.Context, req ResumeAnalysisRequest) (ResumeAnalysis, error) {
	if err := c.ensureInitialized(); err != nil {
		return ResumeAnalysis{}, err
	}
	if err := req.Validate(); err != nil {
		return ResumeAnalysis{}, fmt.Errorf("sdk: %w", err)
	}

	var out ResumeAnalysis
	if err := c.call(ctx, routes.AnalysisResume, req, func() *jsonschema.Schema { return resumeSchema }, &out); err != nil {
		return ResumeAnalysis{}, err
	}
	return out, nil
}

// Answer scores one interview answer.
func (c *AnalysisClient) Answer(ctx context.Context, req AnswerFeedbackRequest) (AnswerFeedback, error) {
	if err := c.ensureInitialized(); err != nil {
		return AnswerFeedback{}, err
	}
	if err := req.Validate(); err != nil {
		return AnswerFeedback{}, fmt.Errorf("sdk: %w", err)
	}

	var out AnswerFeedback
	if err := c.call(ctx, routes.AnalysisAnswer, req, func() *jsonschema.Schema { return answerSchema }, &out); err != nil {
		return AnswerFeedback{}, err
	}
	return out, nil
}

func (c *AnalysisClient) call(ctx context.Context, path string, payload any, schema func() *jsonschema.Schema, out any) error {
	schemaOnce.Do(compileAnalysisSchemas)
	if schemaCompileFailure != nil {
		return schemaCompileFailure
	}

	req, err := c.client.newJSONRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	resp, err := c.client.send(req)
	if err != nil {
		return err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return AnalysisValidationError{Cause: err}
	}
	if err := schema().Validate(data); err != nil {
		return AnalysisValidationError{Cause: err}
	}
	return decodeJSON(bytes.NewReader(raw), out)
}
