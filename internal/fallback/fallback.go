package fallback

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/ports"
	"ArticlesChat/internal/prompt"
)

const defaultGeneralPrompt = `None of the stored articles matched the user's question.
Open your reply by saying that no matching articles were found, then answer from general knowledge.
Make it clear that the answer does not come from the article collection.

Question: {{.Query}}`

// Request carries what a policy needs when the selection came back empty.
type Request struct {
	Query   string
	History []domain.ChatMessage
	Corpus  []domain.Article
}

// Policy decides what a chat request returns when no article matched.
type Policy interface {
	Name() string
	Handle(ctx context.Context, req Request) (domain.PipelineResult, error)
}

// Registry keeps a mapping from policy names to their implementations.
type Registry struct {
	policies map[string]Policy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{policies: map[string]Policy{}}
}

// Register adds or replaces a policy implementation.
func (r *Registry) Register(policy Policy) {
	if r.policies == nil {
		r.policies = map[string]Policy{}
	}
	r.policies[policy.Name()] = policy
}

// Resolve returns a policy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Policy, error) {
	if policy, ok := r.policies[name]; ok {
		return policy, nil
	}
	return nil, fmt.Errorf("fallback policy %s is not registered", name)
}

// General answers from general knowledge and returns no references.
type General struct {
	model          ports.ChatModel
	includeHistory bool
	prompt         *template.Template
}

// NewGeneral builds the general-knowledge policy. An empty promptTemplate selects the built-in one.
func NewGeneral(model ports.ChatModel, promptTemplate string, includeHistory bool) (*General, error) {
	if model == nil {
		return nil, errors.New("general fallback requires a model")
	}
	tmpl, err := prompt.Parse("fallback", promptTemplate, defaultGeneralPrompt)
	if err != nil {
		return nil, err
	}
	return &General{model: model, includeHistory: includeHistory, prompt: tmpl}, nil
}

func (g *General) Name() string { return "general" }

func (g *General) Handle(ctx context.Context, req Request) (domain.PipelineResult, error) {
	rendered, err := prompt.Render(g.prompt, prompt.FallbackData{Query: req.Query})
	if err != nil {
		return domain.PipelineResult{}, err
	}

	answer, err := g.model.Generate(ctx, prompt.Conversation(rendered, req.History, g.includeHistory))
	if err != nil {
		if !errors.Is(err, domain.ErrModelUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
		}
		return domain.PipelineResult{}, fmt.Errorf("general fallback: %w", err)
	}

	return domain.PipelineResult{
		Response:   answer,
		References: []domain.Article{},
		Fallback:   true,
	}, nil
}

// Report fails the request and lists every available title.
type Report struct{}

func NewReport() Report { return Report{} }

func (Report) Name() string { return "report" }

func (Report) Handle(_ context.Context, req Request) (domain.PipelineResult, error) {
	return domain.PipelineResult{}, &domain.NoRelevantArticlesError{Available: domain.Titles(req.Corpus)}
}
