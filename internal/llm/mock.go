package llm

import "context"

// MockClient permite tests sin llamar a un backend real: reproduce fragmentos
// pregrabados y, opcionalmente, una falla terminal.
type MockClient struct {
	Fragments []string
	StreamErr error // entregado despues de agotar Fragments
	OpenErr   error // falla al abrir el stream
	Healthy   bool

	LastMessages []ChatMessage
	LastParams   GenerationParams
	StreamCalls  int
}

func (m *MockClient) StreamCompletion(_ context.Context, messages []ChatMessage, params GenerationParams) (TokenStream, error) {
	m.StreamCalls++
	m.LastMessages = messages
	m.LastParams = params
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	return &mockStream{fragments: m.Fragments, err: m.StreamErr}, nil
}

func (m *MockClient) CheckHealth(context.Context) bool {
	return m.Healthy
}

type mockStream struct {
	fragments []string
	err       error
	idx       int
	done      bool
}

func (s *mockStream) Next() bool {
	if s.idx < len(s.fragments) {
		s.idx++
		return true
	}
	s.done = true
	return false
}

func (s *mockStream) Current() string {
	if s.idx == 0 || s.idx > len(s.fragments) {
		return ""
	}
	return s.fragments[s.idx-1]
}

func (s *mockStream) Err() error {
	if !s.done {
		return nil
	}
	return s.err
}

func (s *mockStream) Close() error { return nil }
