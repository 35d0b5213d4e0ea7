package workflow

import (
	"encoding/json"
	"fmt"
)

// QuestionType identifies the shape of a question's payload.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionDragDrop       QuestionType = "drag_drop"
	QuestionFillBlank      QuestionType = "fill_blank"
	QuestionMatching       QuestionType = "matching"
	QuestionOrdering       QuestionType = "ordering"
)

// QuestionData is the payload of a question, one concrete type per QuestionType.
type QuestionData interface {
	questionType() QuestionType
}

// MultipleChoiceData lists options; CorrectIndexes point into Options.
type MultipleChoiceData struct {
	Options        []string `json:"options"`
	CorrectIndexes []int    `json:"correctIndexes,omitempty"`
	CorrectIndex   *int     `json:"correctIndex,omitempty"`
	Explanation    string   `json:"explanation,omitempty"`
}

// DragDropData maps draggable items to target zones.
type DragDropData struct {
	Items   []string          `json:"items"`
	Targets []string          `json:"targets"`
	Answers map[string]string `json:"answers,omitempty"`
}

// FillBlankData holds text with blanks and the accepted answers per blank.
type FillBlankData struct {
	Text    string     `json:"text"`
	Answers [][]string `json:"answers,omitempty"`
}

// MatchingData pairs left items with right items.
type MatchingData struct {
	Pairs []MatchPair `json:"pairs"`
}

// MatchPair is one correct left/right association.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// OrderingData lists items in their correct order.
type OrderingData struct {
	Items []string `json:"items"`
}

// UnknownData keeps the raw payload of a question type this client does not model.
type UnknownData struct {
	Type QuestionType
	Raw  json.RawMessage
}

func (MultipleChoiceData) questionType() QuestionType { return QuestionMultipleChoice }
func (DragDropData) questionType() QuestionType       { return QuestionDragDrop }
func (FillBlankData) questionType() QuestionType      { return QuestionFillBlank }
func (MatchingData) questionType() QuestionType       { return QuestionMatching }
func (OrderingData) questionType() QuestionType       { return QuestionOrdering }
func (u UnknownData) questionType() QuestionType      { return u.Type }

// Question is one generated quiz question.
type Question struct {
	Type QuestionType
	Text string
	Data QuestionData
	// Points awarded for a correct answer.
	Points int
}

type questionWire struct {
	QuestionType QuestionType    `json:"questionType"`
	QuestionText string          `json:"questionText"`
	QuestionData json.RawMessage `json:"questionData"`
	Points       int             `json:"points"`
}

// UnmarshalJSON decodes questionData according to questionType.
func (q *Question) UnmarshalJSON(b []byte) error {
	var w questionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	q.Type = w.QuestionType
	q.Text = w.QuestionText
	q.Points = w.Points

	raw := w.QuestionData
	// the service sometimes double-encodes the payload as a JSON string
	var inner string
	if len(raw) > 0 && raw[0] == '"' && json.Unmarshal(raw, &inner) == nil {
		raw = json.RawMessage(inner)
	}

	data, err := decodeQuestionData(w.QuestionType, raw)
	if err != nil {
		return fmt.Errorf("decode %s question data: %w", w.QuestionType, err)
	}
	q.Data = data
	return nil
}

// MarshalJSON encodes the question in the service's wire shape.
func (q Question) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	switch d := q.Data.(type) {
	case nil:
		raw = json.RawMessage("null")
	case UnknownData:
		raw = d.Raw
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(questionWire{
		QuestionType: q.Type,
		QuestionText: q.Text,
		QuestionData: raw,
		Points:       q.Points,
	})
}

func decodeQuestionData(t QuestionType, raw json.RawMessage) (QuestionData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch t {
	case QuestionMultipleChoice:
		return decodeAs[MultipleChoiceData](raw)
	case QuestionDragDrop:
		return decodeAs[DragDropData](raw)
	case QuestionFillBlank:
		return decodeAs[FillBlankData](raw)
	case QuestionMatching:
		return decodeAs[MatchingData](raw)
	case QuestionOrdering:
		return decodeAs[OrderingData](raw)
	default:
		return UnknownData{Type: t, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func decodeAs[T QuestionData](raw json.RawMessage) (QuestionData, error) {
	var d T
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}
