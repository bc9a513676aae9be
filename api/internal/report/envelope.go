package report

import (
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("report: unknown kind")

// Envelope is the wire form of a Report.
type Envelope struct {
	Kind     Kind      `json:"kind" yaml:"kind"`
	Message  string    `json:"message,omitempty" yaml:"message,omitempty"`
	Sections []Section `json:"sections" yaml:"sections"`
}

func Encode(r Report) Envelope {
	env := Envelope{Kind: r.Kind(), Sections: r.Sections()}
	switch v := r.(type) {
	case ErrorReport:
		env.Message = v.Message
	case HealthyReport:
		env.Message = v.Message
	}
	if env.Sections == nil {
		env.Sections = []Section{}
	}
	return env
}

func Decode(env Envelope) (Report, error) {
	switch env.Kind {
	case KindError:
		return ErrorReport{Message: env.Message}, nil
	case KindHealthy:
		return HealthyReport{Message: env.Message}, nil
	case KindStructured:
		items := make([]Section, len(env.Sections))
		copy(items, env.Sections)
		return StructuredReport{Items: items}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
}
