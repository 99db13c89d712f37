package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
)

// instancePayload is the JSON column encoding of an instance's optional
// fields.
type instancePayload struct {
	Predicted string
	Actual    string
	Derived   *string
}

func encodePayload(inst *domain.TaskInstance) (instancePayload, error) {
	predicted, err := json.Marshal(inst.Predicted)
	if err != nil {
		return instancePayload{}, fmt.Errorf("failed to encode predicted: %w", err)
	}
	actual, err := json.Marshal(inst.Actual)
	if err != nil {
		return instancePayload{}, fmt.Errorf("failed to encode actual: %w", err)
	}
	p := instancePayload{Predicted: string(predicted), Actual: string(actual)}
	if inst.Derived != nil {
		derived, err := json.Marshal(inst.Derived)
		if err != nil {
			return instancePayload{}, fmt.Errorf("failed to encode derived: %w", err)
		}
		s := string(derived)
		p.Derived = &s
	}
	return p, nil
}

func (p instancePayload) decodeInto(inst *domain.TaskInstance) error {
	if err := unmarshalColumn(p.Predicted, &inst.Predicted); err != nil {
		return fmt.Errorf("failed to decode predicted: %w", err)
	}
	if err := unmarshalColumn(p.Actual, &inst.Actual); err != nil {
		return fmt.Errorf("failed to decode actual: %w", err)
	}
	if p.Derived != nil && *p.Derived != "" {
		var d domain.Derived
		if err := json.Unmarshal([]byte(*p.Derived), &d); err != nil {
			return fmt.Errorf("failed to decode derived: %w", err)
		}
		inst.Derived = &d
	}
	return nil
}

func unmarshalColumn(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
