package mlservice

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/buger/jsonparser"
	"github.com/okian/incomelens/internal/domain/model"
)

// errorDetail extracts {"detail": ...} from an error body, falling back to
// the status line when the body has none.
func errorDetail(body []byte, status int) string {
	value, typ, _, err := jsonparser.Get(body, "detail")
	if err == nil {
		switch typ {
		case jsonparser.String:
			if s, perr := jsonparser.ParseString(value); perr == nil && s != "" {
				return s
			}
		case jsonparser.Number, jsonparser.Object, jsonparser.Array:
			return string(value)
		case jsonparser.Boolean:
			if string(value) == "true" {
				return string(value)
			}
		}
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

// decodeResponse walks the body without building maps so that predictions
// and feature importance keep the order the service sent them in. A repeated
// key keeps its first position and takes its last value.
func decodeResponse(body []byte) (*model.ServiceResponse, error) {
	preds, typ, _, err := jsonparser.Get(body, "predictions")
	if err != nil || typ != jsonparser.Object {
		return nil, fmt.Errorf("%w: predictions must be an object", model.ErrMalformedResponse)
	}

	out := &model.ServiceResponse{}

	seen := map[string]int{}
	err = jsonparser.ObjectEach(preds, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		name, p, err := numberEntry(key, value, dt)
		if err != nil {
			return err
		}
		if i, ok := seen[name]; ok {
			out.Predictions[i].Probability = p
			return nil
		}
		seen[name] = len(out.Predictions)
		out.Predictions = append(out.Predictions, model.ModelSignal{Model: name, Probability: p})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: predictions: %w", model.ErrMalformedResponse, err)
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("%w: no predictions", model.ErrMalformedResponse)
	}
	for _, s := range out.Predictions {
		if s.Probability < 0 || s.Probability > 1 {
			return nil, fmt.Errorf("%w: probability %v for %s out of range", model.ErrMalformedResponse, s.Probability, s.Model)
		}
	}

	fi, typ, _, err := jsonparser.Get(body, "feature_importance")
	if err != nil || typ != jsonparser.Object {
		return nil, fmt.Errorf("%w: feature_importance must be an object", model.ErrMalformedResponse)
	}
	out.FeatureImportance = model.FeatureImportance{}
	clear(seen)
	err = jsonparser.ObjectEach(fi, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		name, w, err := numberEntry(key, value, dt)
		if err != nil {
			return err
		}
		if i, ok := seen[name]; ok {
			out.FeatureImportance[i].Weight = w
			return nil
		}
		seen[name] = len(out.FeatureImportance)
		out.FeatureImportance = append(out.FeatureImportance, model.FeatureWeight{Name: name, Weight: w})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: feature_importance: %w", model.ErrMalformedResponse, err)
	}

	if plots, typ, _, err := jsonparser.Get(body, "plots"); err == nil && typ != jsonparser.Null {
		out.Plots = rawValue(plots, typ)
	}

	return out, nil
}

func numberEntry(key, value []byte, dt jsonparser.ValueType) (string, float64, error) {
	name, err := jsonparser.ParseString(key)
	if err != nil {
		return "", 0, err
	}
	if dt != jsonparser.Number {
		return "", 0, fmt.Errorf("%s is not a number", name)
	}
	v, err := jsonparser.ParseFloat(value)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", 0, fmt.Errorf("%s is not a finite number", name)
	}
	return name, v, nil
}

// rawValue returns a standalone JSON encoding of a value returned by jsonparser.Get.
func rawValue(value []byte, typ jsonparser.ValueType) json.RawMessage {
	if typ == jsonparser.String {
		raw := make([]byte, 0, len(value)+2)
		raw = append(raw, '"')
		raw = append(raw, value...)
		return append(raw, '"')
	}
	return append(json.RawMessage(nil), value...)
}
