package llm

import "context"

// FakeModel is an in-memory Model for tests that exercise the Refine
// pipeline stage without a live API key.
type FakeModel struct {
	Ready    bool
	Response string
	Err      error
	Calls    int
}

func (f *FakeModel) Complete(_ context.Context, _ string) (string, error) {
	f.Calls++
	return f.Response, f.Err
}

func (f *FakeModel) ModelName() string { return "fake-model" }
func (f *FakeModel) MaxTokens() int    { return 1024 }
func (f *FakeModel) IsReady() bool     { return f.Ready }

var _ Model = (*FakeModel)(nil)
