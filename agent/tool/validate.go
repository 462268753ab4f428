package tool

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mitchellh/mapstructure"

	contractx "github.com/tanpawarit/travelai/agent/contract"
)

// normalize coerces model-supplied values toward the declared types. Null
// values count as absent; unknown keys are dropped.
func normalize(def toolDef, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for key, raw := range args {
		p, ok := def.param(key)
		if !ok || raw == nil {
			continue
		}
		switch p.kind {
		case schema.Integer:
			v, err := toNumber(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = v
		default:
			s, err := toString(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			if s == "" && !p.required {
				continue
			}
			out[key] = s
		}
	}
	return out, nil
}

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected %T, want integer", v)
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case json.Number:
		return s.String(), nil
	case int:
		return strconv.Itoa(s), nil
	default:
		return "", fmt.Errorf("unexpected %T, want string", v)
	}
}

// applyDefaults fills optional defaults and clamps weather days into [1,5].
func applyDefaults(name string, args map[string]any) {
	switch name {
	case ToolGetWeather:
		days, ok := args["days"].(float64)
		switch {
		case !ok:
			args["days"] = 1.0
		case days < 1:
			args["days"] = 1.0
		case days > 5:
			args["days"] = 5.0
		}
	case ToolSearchFlights:
		if _, ok := args["adults"]; !ok {
			args["adults"] = 1.0
		}
	}
}

// checkDates enforces real calendar dates and return >= outbound.
func checkDates(args map[string]any) error {
	out, _ := args["outbound_date"].(string)
	outbound, err := time.Parse(time.DateOnly, out)
	if err != nil {
		return fmt.Errorf("outbound_date %q is not a valid date", out)
	}
	ret, ok := args["return_date"].(string)
	if !ok {
		return nil
	}
	back, err := time.Parse(time.DateOnly, ret)
	if err != nil {
		return fmt.Errorf("return_date %q is not a valid date", ret)
	}
	if back.Before(outbound) {
		return fmt.Errorf("return_date %s is before outbound_date %s", ret, out)
	}
	return nil
}

// validate turns raw arguments into target, or returns an ErrValidation.
func validate(def toolDef, sch *openapi3.Schema, args map[string]any, target any) error {
	norm, err := normalize(def, args)
	if err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	applyDefaults(def.name, norm)

	if err := sch.VisitJSON(norm); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if def.name == ToolSearchFlights {
		if err := checkDates(norm); err != nil {
			return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(norm); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return nil
}
