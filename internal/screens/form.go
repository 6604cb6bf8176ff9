package screens

import (
	"sync"

	"github.com/decisionhub/decisionhub/internal/forms"
)

// formState is the value and error state shared by the auth forms
type formState struct {
	mu      sync.Mutex
	values  forms.Values
	errors  forms.Errors
	loading bool
}

// Set updates one field
func (s *formState) Set(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.Set(field, value)
}

// Restart clears values and errors
func (s *formState) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = forms.Values{}
	s.errors = forms.Errors{}
}

// Values returns a copy of the form values
func (s *formState) Values() forms.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := forms.Values{}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the error state
func (s *formState) Errors() forms.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := forms.Errors{}
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// Loading reports whether a submission is in flight
func (s *formState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// begin validates under the lock and marks the form loading when validate
// passes. The returned errors are non-empty when submission must stop.
func (s *formState) begin(validate func(forms.Values) forms.Errors) (forms.Values, forms.Errors) {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := validate(s.values)
	s.errors = errs
	if errs.Empty() {
		s.loading = true
	}

	values := forms.Values{}
	for k, v := range s.values {
		values[k] = v
	}
	return values, errs
}

func (s *formState) finish(errs forms.Errors) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if errs != nil {
		s.errors = errs
	}
}
