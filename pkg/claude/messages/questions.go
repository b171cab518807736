package messages

import "encoding/json"

// UserQuestion is one question from an AskUserQuestion tool call.
type UserQuestion struct {
	Question    string               `json:"question"`
	Header      string               `json:"header"`
	Options     []UserQuestionOption `json:"options"`
	MultiSelect bool                 `json:"multiSelect"`
}

// UserQuestionOption is a selectable answer.
type UserQuestionOption struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// UserQuestionAnswers maps question text to the chosen label. Multi-select
// questions map to a []string of labels. Values of any other type are
// dropped when the response is built.
type UserQuestionAnswers map[string]any

func (a UserQuestionAnswers) normalize() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		switch val := v.(type) {
		case string:
			out[k] = val
		case []string:
			out[k] = append([]string{}, val...)
		case []any:
			labels := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					labels = nil

					break
				}
				labels = append(labels, s)
			}
			if labels != nil {
				out[k] = labels
			}
		}
	}

	return out
}

// ExtractQuestions decodes an AskUserQuestion input. Any shape mismatch
// yields an empty list.
func ExtractQuestions(input json.RawMessage) []UserQuestion {
	var w struct {
		Questions []struct {
			Question *string `json:"question"`
			Header   *string `json:"header"`
			Options  []struct {
				Label       *string `json:"label"`
				Description *string `json:"description"`
			} `json:"options"`
			MultiSelect *bool `json:"multiSelect"`
		} `json:"questions"`
	}
	if len(input) == 0 || json.Unmarshal(input, &w) != nil || w.Questions == nil {
		return []UserQuestion{}
	}

	out := make([]UserQuestion, 0, len(w.Questions))
	for _, q := range w.Questions {
		if q.Question == nil || q.Header == nil || q.Options == nil || q.MultiSelect == nil {
			return []UserQuestion{}
		}
		uq := UserQuestion{
			Question:    *q.Question,
			Header:      *q.Header,
			MultiSelect: *q.MultiSelect,
			Options:     make([]UserQuestionOption, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			if o.Label == nil || o.Description == nil {
				return []UserQuestion{}
			}
			uq.Options = append(uq.Options, UserQuestionOption{Label: *o.Label, Description: *o.Description})
		}
		out = append(out, uq)
	}

	return out
}
